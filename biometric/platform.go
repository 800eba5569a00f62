package biometric

import (
	"context"
	"time"
)

// Modality defines a public type used by keygate APIs.
//
// Modality instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Modality uint8

const (
	// ModalityUnknown is the zero value.
	ModalityUnknown Modality = iota
	// ModalityFingerprint is an exported constant or variable used by the key lifecycle engine.
	ModalityFingerprint
	// ModalityFace is an exported constant or variable used by the key lifecycle engine.
	ModalityFace
	// ModalityIris is an exported constant or variable used by the key lifecycle engine.
	ModalityIris
)

// String describes the string operation and its observable behavior.
func (m Modality) String() string {
	switch m {
	case ModalityFingerprint:
		return "fingerprint"
	case ModalityFace:
		return "face"
	case ModalityIris:
		return "iris"
	default:
		return "unknown"
	}
}

// Strength distinguishes the low-friction quick prompt from step-up strong
// authentication with device-credential fallback.
type Strength uint8

const (
	// StrengthQuick is an exported constant or variable used by the key lifecycle engine.
	StrengthQuick Strength = iota
	// StrengthStrong is an exported constant or variable used by the key lifecycle engine.
	StrengthStrong
)

// String describes the string operation and its observable behavior.
func (s Strength) String() string {
	if s == StrengthStrong {
		return "strong"
	}
	return "quick"
}

// Capability is a read-mostly snapshot of what the platform reports.
// It is recomputed on every check and must be treated as stale after any
// policy change; the gate never caches it.
type Capability struct {
	Available  bool
	Modalities []Modality
	CheckedAt  time.Time
}

// Outcome is the platform's verdict for one prompt.
type Outcome uint8

const (
	// OutcomeSuccess is an exported constant or variable used by the key lifecycle engine.
	OutcomeSuccess Outcome = iota
	// OutcomeFailed is an exported constant or variable used by the key lifecycle engine.
	OutcomeFailed
	// OutcomeCancelled is an exported constant or variable used by the key lifecycle engine.
	OutcomeCancelled
	// OutcomeNotEnrolled is an exported constant or variable used by the key lifecycle engine.
	OutcomeNotEnrolled
)

// PromptRequest carries one prompt to the platform collaborator.
type PromptRequest struct {
	Reason                string
	AllowDeviceCredential bool
	Metadata              map[string]string
}

// PromptResult is the platform's answer for a completed prompt. Outcome is
// meaningful even on non-success; Modality is set only on success.
type PromptResult struct {
	Outcome  Outcome
	Modality Modality
}

// PlatformAuthenticator is the platform biometric collaborator. Prompt may
// suspend indefinitely pending user interaction; cancellation is bounded
// only by the platform's own prompt timeout and the supplied context.
//
// Errors returned from either method mean the platform check itself could
// not run, which is distinct from a successful "not available" or
// "rejected" answer.
type PlatformAuthenticator interface {
	Capabilities(ctx context.Context) (Capability, error)
	Prompt(ctx context.Context, req PromptRequest) (PromptResult, error)
}
