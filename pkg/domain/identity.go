package domain

import (
	dErrors "tombola/pkg/domain-errors"
)

// Identity is the opaque token a raffle participant is known by: a wallet
// handle, an account reference, or any stable external identifier.
// Invariant: non-empty, at most MaxIdentityLen bytes, printable ASCII from
// the allowed set. Two identities are the same entrant iff the tokens are
// byte-equal; no case folding is applied.
//
// Usage: construct via ParseIdentity at trust boundaries to enforce the
// charset; direct casting bypasses validation.
type Identity string

// MaxIdentityLen bounds identity tokens so registry keys and event payloads
// stay small.
const MaxIdentityLen = 128

// ParseIdentity constructs an Identity from external input.
//
// Usage: call from handlers/adapters when parsing requests.
//
// Errors: returns CodeInvalidInput when the token is empty, too long, or
// contains a byte outside [A-Za-z0-9._:-]; no other errors are expected.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity cannot be empty")
	}
	if len(s) > MaxIdentityLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity exceeds maximum length")
	}
	for i := 0; i < len(s); i++ {
		if !isIdentityByte(s[i]) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "identity contains invalid characters")
		}
	}
	return Identity(s), nil
}

func isIdentityByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '.' || b == '_' || b == ':' || b == '-':
		return true
	}
	return false
}

// String returns the raw token.
func (i Identity) String() string {
	return string(i)
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i == ""
}
