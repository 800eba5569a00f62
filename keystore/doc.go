// Package keystore defines the persistence boundary for key material and
// key metadata records.
//
// A [Store] holds two things per key identifier: a plaintext metadata
// record describing usage, algorithm, status, and timestamps, and an
// opaque material blob stored separately. The store itself performs no
// cryptography; confidentiality and integrity of the backing medium are
// the platform's responsibility.
//
// Two implementations ship with the package: [RedisStore] for shared
// deployments and [MemoryStore] for embedding and tests. Both are safe
// for concurrent use.
package keystore
