package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomToken(t *testing.T) {
	tok, err := RandomToken(48)
	require.NoError(t, err)
	assert.Len(t, tok, 96) // hex doubles the byte count

	_, err = hex.DecodeString(tok)
	assert.NoError(t, err)

	other, err := RandomToken(48)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}
