// Package keygate provides a key lifecycle and biometric-gated session
// core: generation, rotation, revocation, and use of cryptographic keys,
// biometric-authenticated session windows, and a read-only security audit
// over the resulting posture.
//
// The package is designed for concurrent callers: Engine methods are safe
// to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// keygate is the public surface. It exposes [Engine], [Builder], [Config],
// [KeyManager], [SessionMonitor], [SecurityAuditor], and value types. The
// cryptographic primitives live in crypto/, the persistence boundary in
// keystore/, and the platform prompt wrapper in biometric/. The platform
// secure store, the biometric prompt, and the clock are collaborators
// injected at build time; no component reaches for ambient global state.
//
// # What this package must NOT do
//
//   - Return a successful result for an operation that did not fully
//     complete (no partial key writes, no partial decrypts).
//   - Mutate key state from anywhere but [KeyManager], or session state
//     from anywhere but [SessionMonitor].
//   - Use panics for user-driven prompt rejections; those are sentinel
//     errors.
//
// # Lifecycle contract
//
// The SessionMonitor runs one background revalidation goroutine and the
// SecurityAuditor optionally another. Both are owned by the Engine and
// stopped by [Engine.Close]; no timer outlives its owner.
package keygate
