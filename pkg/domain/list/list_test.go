package list

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReason(t *testing.T) {
	r, err := ValidateReason("  spam ring  ")
	require.NoError(t, err)
	assert.Equal(t, "spam ring", r)

	_, err = ValidateReason("   ")
	assert.ErrorIs(t, err, ErrInvalidReason)

	_, err = ValidateReason(strings.Repeat("x", MaxReasonLength+1))
	assert.ErrorIs(t, err, ErrInvalidReason)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("whitelist")
	require.NoError(t, err)
	assert.Equal(t, Whitelist, k)

	_, err = ParseKind("greylist")
	assert.Error(t, err)
}
