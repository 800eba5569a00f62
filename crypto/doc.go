// Package crypto implements the stateless cryptographic primitives used by
// keygate: authenticated symmetric encryption, RSA-OAEP asymmetric
// encryption, and keyed message authentication.
//
// All functions in this package are pure apart from drawing fresh random
// nonces from crypto/rand. They hold no shared mutable state and are safe
// for concurrent use. Byte slices are treated as opaque binary; no text
// encoding is applied anywhere in this package.
//
// The supported algorithm set is a closed enum ([Algorithm]); invalid
// usage/algorithm pairings are rejected before any key material exists.
package crypto
