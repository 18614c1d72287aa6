package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	hasher, err := NewPasswordHasher(Argon2Params{Memory: 8192, Time: 1, Parallelism: 1})
	require.NoError(t, err)
	return hasher
}

func TestPasswordHashAndVerify(t *testing.T) {
	hasher := testHasher(t)

	hash, err := hasher.Hash("Correct-Horse-Battery-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, hasher.Verify("Correct-Horse-Battery-1", hash))
	assert.False(t, hasher.Verify("correct-horse-battery-1", hash))
	assert.False(t, hasher.Verify("", hash))
}

func TestPasswordHashUniqueSalts(t *testing.T) {
	hasher := testHasher(t)

	first, err := hasher.Hash("SamePassword123")
	require.NoError(t, err)
	second, err := hasher.Hash("SamePassword123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("SamePassword123", first))
	assert.True(t, hasher.Verify("SamePassword123", second))
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := testHasher(t)

	cases := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=8192,t=1,p=1$onlysalt",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=abc,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
	}
	for _, malformed := range cases {
		assert.False(t, hasher.Verify("AnyPassword1", malformed), "hash %q", malformed)
	}
}

func TestNewPasswordHasherRejectsWeakParams(t *testing.T) {
	_, err := NewPasswordHasher(Argon2Params{Memory: 1024, Time: 1, Parallelism: 1})
	assert.Error(t, err)

	_, err = NewPasswordHasher(Argon2Params{Memory: 8192, Time: 0, Parallelism: 1})
	assert.Error(t, err)

	_, err = NewPasswordHasher(Argon2Params{Memory: 8192, Time: 1, Parallelism: 0})
	assert.Error(t, err)
}
