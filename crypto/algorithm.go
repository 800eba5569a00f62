package crypto

// Usage defines a public type used by keygate APIs.
//
// Usage instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Usage uint8

const (
	// UsageUnknown is the zero value and never valid for key generation.
	UsageUnknown Usage = iota
	// UsageSymmetricEncryption is an exported constant or variable used by the key lifecycle engine.
	UsageSymmetricEncryption
	// UsageAsymmetricEncryption is an exported constant or variable used by the key lifecycle engine.
	UsageAsymmetricEncryption
	// UsageMAC is an exported constant or variable used by the key lifecycle engine.
	UsageMAC
)

// String describes the string operation and its observable behavior.
func (u Usage) String() string {
	switch u {
	case UsageSymmetricEncryption:
		return "symmetric-encryption"
	case UsageAsymmetricEncryption:
		return "asymmetric-encryption"
	case UsageMAC:
		return "mac"
	default:
		return "unknown"
	}
}

// ParseUsage maps the persisted usage string back to its enum value.
func ParseUsage(s string) Usage {
	switch s {
	case "symmetric-encryption":
		return UsageSymmetricEncryption
	case "asymmetric-encryption":
		return UsageAsymmetricEncryption
	case "mac":
		return UsageMAC
	default:
		return UsageUnknown
	}
}

// Algorithm defines a public type used by keygate APIs.
//
// Algorithm instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Algorithm uint8

const (
	// AlgorithmUnknown is the zero value and never valid for key generation.
	AlgorithmUnknown Algorithm = iota
	// AES256GCM is an exported constant or variable used by the key lifecycle engine.
	AES256GCM
	// ChaCha20Poly1305 is an exported constant or variable used by the key lifecycle engine.
	ChaCha20Poly1305
	// RSAOAEP2048 is an exported constant or variable used by the key lifecycle engine.
	RSAOAEP2048
	// RSAOAEP4096 is an exported constant or variable used by the key lifecycle engine.
	RSAOAEP4096
	// HMACSHA256 is an exported constant or variable used by the key lifecycle engine.
	HMACSHA256
	// HMACSHA512 is an exported constant or variable used by the key lifecycle engine.
	HMACSHA512
)

// String describes the string operation and its observable behavior.
func (a Algorithm) String() string {
	switch a {
	case AES256GCM:
		return "aes-256-gcm"
	case ChaCha20Poly1305:
		return "chacha20-poly1305"
	case RSAOAEP2048:
		return "rsa-oaep-2048"
	case RSAOAEP4096:
		return "rsa-oaep-4096"
	case HMACSHA256:
		return "hmac-sha256"
	case HMACSHA512:
		return "hmac-sha512"
	default:
		return "unknown"
	}
}

// ParseAlgorithm maps the persisted algorithm string back to its enum value.
func ParseAlgorithm(s string) Algorithm {
	switch s {
	case "aes-256-gcm":
		return AES256GCM
	case "chacha20-poly1305":
		return ChaCha20Poly1305
	case "rsa-oaep-2048":
		return RSAOAEP2048
	case "rsa-oaep-4096":
		return RSAOAEP4096
	case "hmac-sha256":
		return HMACSHA256
	case "hmac-sha512":
		return HMACSHA512
	default:
		return AlgorithmUnknown
	}
}

// KeySizeBits returns the fixed key size in bits for the algorithm, or 0
// for unknown algorithms. Sizes are intrinsic to the closed enum; callers
// cannot request a different size for a given algorithm.
func (a Algorithm) KeySizeBits() int {
	switch a {
	case AES256GCM, ChaCha20Poly1305, HMACSHA256:
		return 256
	case HMACSHA512:
		return 512
	case RSAOAEP2048:
		return 2048
	case RSAOAEP4096:
		return 4096
	default:
		return 0
	}
}

// Usage returns the single usage the algorithm is valid for.
func (a Algorithm) Usage() Usage {
	switch a {
	case AES256GCM, ChaCha20Poly1305:
		return UsageSymmetricEncryption
	case RSAOAEP2048, RSAOAEP4096:
		return UsageAsymmetricEncryption
	case HMACSHA256, HMACSHA512:
		return UsageMAC
	default:
		return UsageUnknown
	}
}

// Compatible reports whether the usage/algorithm pairing is valid for key
// generation.
func Compatible(u Usage, a Algorithm) bool {
	if u == UsageUnknown || a == AlgorithmUnknown {
		return false
	}
	return a.Usage() == u
}
