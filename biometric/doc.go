// Package biometric wraps the platform biometric prompt behind a typed
// gate.
//
// The platform itself is a collaborator ([PlatformAuthenticator]); this
// package owns capability detection and the quick/strong prompt flows and
// translates platform outcomes into sentinel errors. User-driven
// rejections (cancel, no enrollment, failed match) are expected results,
// returned as typed errors and never raised as panics.
package biometric
