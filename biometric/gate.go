package biometric

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPlatformUnavailable is returned when the platform capability check
	// or prompt could not run at all. A successful check that reports "no
	// biometrics" is not an error.
	ErrPlatformUnavailable = errors.New("biometric platform unavailable")
	// ErrAuthenticationFailed is returned when the user attempted the
	// prompt and the platform rejected the match.
	ErrAuthenticationFailed = errors.New("biometric authentication failed")
	// ErrUserCancelled is returned when the user dismissed the prompt.
	ErrUserCancelled = errors.New("biometric prompt cancelled by user")
	// ErrNoBiometricsEnrolled is returned when the platform has no
	// enrolled biometric credentials for the current user.
	ErrNoBiometricsEnrolled = errors.New("no biometrics enrolled")
)

// Result is returned on successful authentication.
type Result struct {
	Strength Strength
	Modality Modality
	At       time.Time
}

// Gate owns capability detection and the prompt flows over one platform
// collaborator. It is stateless apart from the collaborator reference and
// safe for concurrent use.
type Gate struct {
	platform PlatformAuthenticator
	now      func() time.Time
}

// NewGate describes the newgate operation and its observable behavior.
//
// NewGate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewGate(platform PlatformAuthenticator, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{platform: platform, now: now}
}

// CheckCapabilities queries the platform collaborator. The snapshot is
// never cached across calls. It fails with [ErrPlatformUnavailable] when
// the check itself cannot be performed.
func (g *Gate) CheckCapabilities(ctx context.Context) (Capability, error) {
	cap, err := g.platform.Capabilities(ctx)
	if err != nil {
		return Capability{}, fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	cap.CheckedAt = g.now()
	return cap, nil
}

// QuickAuth requests a low-friction biometric check.
func (g *Gate) QuickAuth(ctx context.Context, reason string, metadata map[string]string) (Result, error) {
	return g.prompt(ctx, PromptRequest{
		Reason:   reason,
		Metadata: metadata,
	}, StrengthQuick)
}

// StrongAuth requests step-up authentication with device-credential
// fallback allowed.
func (g *Gate) StrongAuth(ctx context.Context, reason string, metadata map[string]string) (Result, error) {
	return g.prompt(ctx, PromptRequest{
		Reason:                reason,
		AllowDeviceCredential: true,
		Metadata:              metadata,
	}, StrengthStrong)
}

func (g *Gate) prompt(ctx context.Context, req PromptRequest, strength Strength) (Result, error) {
	res, err := g.platform.Prompt(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}

	switch res.Outcome {
	case OutcomeSuccess:
		return Result{
			Strength: strength,
			Modality: res.Modality,
			At:       g.now(),
		}, nil
	case OutcomeCancelled:
		return Result{}, ErrUserCancelled
	case OutcomeNotEnrolled:
		return Result{}, ErrNoBiometricsEnrolled
	default:
		return Result{}, ErrAuthenticationFailed
	}
}
