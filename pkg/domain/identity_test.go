package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tombola/pkg/domain-errors"
)

// TestParseIdentity_Invariants validates the parsing invariant:
// identities must be non-empty, bounded, and drawn from the allowed charset.
func TestParseIdentity_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentity("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects oversized token", func(t *testing.T) {
		_, err := ParseIdentity(strings.Repeat("a", MaxIdentityLen+1))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts token at maximum length", func(t *testing.T) {
		id, err := ParseIdentity(strings.Repeat("a", MaxIdentityLen))
		require.NoError(t, err)
		assert.Len(t, id.String(), MaxIdentityLen)
	})

	t.Run("accepts typical tokens", func(t *testing.T) {
		for _, s := range []string{"alice", "0xDEADbeef42", "acct:prod-7", "user_42.bob"} {
			id, err := ParseIdentity(s)
			require.NoError(t, err, s)
			assert.Equal(t, Identity(s), id)
		}
	})

	t.Run("preserves case", func(t *testing.T) {
		a, err := ParseIdentity("Alice")
		require.NoError(t, err)
		b, err := ParseIdentity("alice")
		require.NoError(t, err)
		assert.NotEqual(t, a, b, "identities compare byte-equal, no folding")
	})
}

// TestParseIdentity_SecurityInvariants validates that parsing rejects attack
// vectors at API entry points.
func TestParseIdentity_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE rounds;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "alice\x00bob", true},
		{"Embedded whitespace", "alice bob", true},
		{"Leading whitespace", " alice", true},
		{"Unicode zero-width space", "ali​ce", true},
		{"Newline", "alice\n", true},
		{"Oversized input", strings.Repeat("a", 1000), true},

		{"Plain handle", "alice", false},
		{"Hex address", "0xdeadbeef", false},
		{"Namespaced token", "wallet:main-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIdentity(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestTypeDistinction verifies the compiler enforces type safety between
// typed UUIDs. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	transferID := TransferID(uuid.New())
	eventID := EventID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ TransferID = eventID   // compile error
	// var _ EventID = transferID   // compile error

	assert.NotEqual(t, uuid.UUID(transferID), uuid.UUID(eventID))
}

// TestParseTypedIDs_ConsistentBehavior ensures all typed UUIDs share one
// validation path.
func TestParseTypedIDs_ConsistentBehavior(t *testing.T) {
	valid := uuid.New().String()
	invalid := []string{"", "not-a-uuid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errTransfer := ParseTransferID(valid)
		_, errEvent := ParseEventID(valid)
		require.NoError(t, errTransfer)
		require.NoError(t, errEvent)
	})

	for _, input := range invalid {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errTransfer := ParseTransferID(input)
			_, errEvent := ParseEventID(input)
			require.Error(t, errTransfer)
			require.Error(t, errEvent)
			assert.True(t, dErrors.HasCode(errTransfer, dErrors.CodeInvalidInput))
			assert.True(t, dErrors.HasCode(errEvent, dErrors.CodeInvalidInput))
		})
	}
}
