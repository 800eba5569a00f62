// Package internal holds identifier and randomness helpers shared across
// the keygate packages. Nothing here is part of the public surface.
package internal
