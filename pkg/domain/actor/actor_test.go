package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := ParseID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, ID(42), id)
	assert.Equal(t, "42", id.String())

	for _, bad := range []string{"", "abc", "0", "-7", "1.5"} {
		_, err := ParseID(bad)
		assert.ErrorIs(t, err, ErrInvalidActorID, bad)
	}
}

func TestValidateAction(t *testing.T) {
	assert.NoError(t, ValidateAction("redeem_code"))
	assert.NoError(t, ValidateAction("reward:daily-1.v2"))
	assert.ErrorIs(t, ValidateAction(""), ErrInvalidAction)
	assert.ErrorIs(t, ValidateAction("Redeem"), ErrInvalidAction)
	assert.ErrorIs(t, ValidateAction("redeem code"), ErrInvalidAction)
}
