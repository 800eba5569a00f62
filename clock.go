package keygate

import "time"

// Clock is the monotonic time source collaborator used for every expiry
// comparison in the core. Production builds use the system clock; tests
// inject a controllable one.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
