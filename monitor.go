package keygate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/keygate/biometric"
	"github.com/MrEthical07/keygate/internal"
)

// sessionSlot is the single owned session. expired is sticky: once any
// check observes the session invalid it can never become valid again, even
// if a later policy change would lengthen its window.
type sessionSlot struct {
	id        string
	strength  biometric.Strength
	modality  biometric.Modality
	createdAt time.Time
	expired   bool
}

// SessionMonitor owns the single authenticated-session slot and its
// periodic revalidation. At most one session exists per monitor; a new
// successful authentication replaces the prior session.
//
// The revalidation goroutine and the explicit API calls both mutate the
// slot and are serialized through one mutex. The biometric prompt itself
// is never invoked under that mutex, since prompts may suspend
// indefinitely. Close cancels the background task; a monitor must not be
// used after Close.
type SessionMonitor struct {
	gate    *biometric.Gate
	clock   Clock
	audit   *auditDispatcher
	metrics *Metrics

	mu      sync.Mutex
	policy  AuthenticationPolicy
	session *sessionSlot
	closed  bool

	ticker    *time.Ticker
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newSessionMonitor(gate *biometric.Gate, policy AuthenticationPolicy, clock Clock, audit *auditDispatcher, metrics *Metrics) *SessionMonitor {
	if policy.RevalidateInterval <= 0 {
		policy.RevalidateInterval = time.Minute
	}

	m := &SessionMonitor{
		gate:    gate,
		clock:   clock,
		audit:   audit,
		metrics: metrics,
		policy:  policy,
		ticker:  time.NewTicker(policy.RevalidateInterval),
		done:    make(chan struct{}),
	}

	m.wg.Add(1)
	go m.run()

	return m
}

func (m *SessionMonitor) run() {
	defer m.wg.Done()
	defer m.ticker.Stop()

	for {
		select {
		case <-m.ticker.C:
			m.revalidate()
		case <-m.done:
			return
		}
	}
}

// revalidate is the periodic pass: an invalid session is reported expired
// and its slot collected back to no-session.
func (m *SessionMonitor) revalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return
	}
	if m.evaluateLocked() == StateExpired {
		m.collectLocked()
	}
}

// evaluateLocked derives the slot state under the current policy and
// clock, marking the sticky expired flag on the way. Callers hold m.mu.
func (m *SessionMonitor) evaluateLocked() SessionState {
	s := m.session
	if s == nil {
		return StateNoSession
	}
	if s.expired {
		return StateExpired
	}
	deadline := s.createdAt.Add(m.policy.ttlFor(s.strength))
	if !m.clock.Now().Before(deadline) {
		s.expired = true
		return StateExpired
	}
	return StateValid
}

func (m *SessionMonitor) collectLocked() {
	s := m.session
	m.session = nil
	m.metrics.Inc(MetricSessionExpired)
	m.emit(AuditEvent{
		EventType: EventSessionExpired,
		SessionID: s.id,
		Success:   true,
	})
}

// Authenticate delegates to the biometric gate and, on success, replaces
// any existing session with a new valid one. User-driven rejections come
// back as the gate's sentinel errors; they never panic.
//
// Authenticate fails with [ErrStrongAuthRequired] when the active policy
// demands strong authentication and strong is false.
func (m *SessionMonitor) Authenticate(ctx context.Context, reason string, strong bool, metadata map[string]string) (*AuthResult, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrMonitorClosed
	}
	required := m.policy.RequiredStrength
	m.mu.Unlock()

	if required == biometric.StrengthStrong && !strong {
		return nil, ErrStrongAuthRequired
	}

	var res biometric.Result
	var err error
	if strong {
		res, err = m.gate.StrongAuth(ctx, reason, metadata)
	} else {
		res, err = m.gate.QuickAuth(ctx, reason, metadata)
	}
	if err != nil {
		m.recordAuthFailure(err)
		return nil, err
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrMonitorClosed
	}
	now := m.clock.Now()
	m.session = &sessionSlot{
		id:        sid.String(),
		strength:  res.Strength,
		modality:  res.Modality,
		createdAt: now,
	}
	expiresAt := now.Add(m.policy.ttlFor(res.Strength))
	m.mu.Unlock()

	m.metrics.Inc(MetricAuthSuccess)
	m.emit(AuditEvent{
		EventType: EventAuthSuccess,
		SessionID: sid.String(),
		Success:   true,
		Metadata: map[string]string{
			"strength": res.Strength.String(),
			"modality": res.Modality.String(),
		},
	})

	return &AuthResult{
		SessionID: sid.String(),
		Strength:  res.Strength,
		Modality:  res.Modality,
		ExpiresAt: expiresAt,
	}, nil
}

func (m *SessionMonitor) recordAuthFailure(err error) {
	if errors.Is(err, biometric.ErrUserCancelled) {
		m.metrics.Inc(MetricAuthCancelled)
	} else {
		m.metrics.Inc(MetricAuthFailure)
	}
	m.emit(AuditEvent{
		EventType: EventAuthFailure,
		Success:   false,
		Error:     err.Error(),
	})
}

// InvalidateSession is the explicit cancellation primitive: an immediate
// transition to no-session. Idempotent.
func (m *SessionMonitor) InvalidateSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return
	}
	sid := m.session.id
	m.session = nil
	m.metrics.Inc(MetricSessionInvalidated)
	m.emit(AuditEvent{
		EventType: EventSessionInvalidated,
		SessionID: sid,
		Success:   true,
	})
}

// UpdatePolicy stores the new policy and immediately re-evaluates the
// current session under it. A policy that shortens the allowed duration
// past the session's age expires it synchronously. The background
// revalidation cadence follows the new interval.
func (m *SessionMonitor) UpdatePolicy(policy AuthenticationPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if policy.RevalidateInterval <= 0 {
		policy.RevalidateInterval = m.policy.RevalidateInterval
	}
	if policy.RevalidateInterval != m.policy.RevalidateInterval && !m.closed {
		m.ticker.Reset(policy.RevalidateInterval)
	}
	m.policy = policy

	if m.session != nil && m.evaluateLocked() == StateExpired {
		m.collectLocked()
	}
}

// State reports the slot state, evaluating expiry against the clock at
// call time rather than waiting for the next background pass.
func (m *SessionMonitor) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evaluateLocked()
}

// CurrentSession returns a snapshot of the session slot alongside its
// state. The snapshot is only meaningful for StateValid and StateExpired.
func (m *SessionMonitor) CurrentSession() (SessionInfo, SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.evaluateLocked()
	if m.session == nil {
		return SessionInfo{}, state
	}
	s := m.session
	return SessionInfo{
		SessionID: s.id,
		Strength:  s.strength,
		Modality:  s.modality,
		CreatedAt: s.createdAt,
		ExpiresAt: s.createdAt.Add(m.policy.ttlFor(s.strength)),
	}, state
}

// Policy returns the active authentication policy.
func (m *SessionMonitor) Policy() AuthenticationPolicy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.policy
}

// Close cancels the periodic revalidation task and blocks until it has
// stopped. The session slot is cleared. Safe to call more than once.
func (m *SessionMonitor) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.session = nil
		m.mu.Unlock()
		close(m.done)
		m.wg.Wait()
	})
}

func (m *SessionMonitor) emit(event AuditEvent) {
	if m.audit == nil {
		return
	}
	event.Timestamp = m.clock.Now()
	m.audit.Emit(context.Background(), event)
}
