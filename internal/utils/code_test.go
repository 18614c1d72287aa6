package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestCodeHashRoundTrip(t *testing.T) {
	const code = "654321"

	hash := HashCode(code)
	assert.NotEqual(t, code, hash)
	assert.Len(t, hash, 64)

	assert.True(t, VerifyCodeHash(code, hash))
	assert.False(t, VerifyCodeHash("000000", hash))
	assert.False(t, VerifyCodeHash(code, HashCode("123456")))
}
