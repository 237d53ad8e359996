package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("password1")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	ok, err := h.Compare("password1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare("password2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_SaltsEveryHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("password1")
	require.NoError(t, err)
	second, err := h.Hash("password1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasher_LongPasswordsUseEveryByte(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	base := strings.Repeat("p", 100)

	hash, err := h.Hash(base + "a")
	require.NoError(t, err)

	ok, err := h.Compare(base+"a", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(base+"b", hash)
	require.NoError(t, err)
	assert.False(t, ok, "bytes past 72 must still matter")
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	ok, err := NewBcryptHasher(bcrypt.MinCost).Compare("password1", "not-a-bcrypt-hash")

	assert.False(t, ok)
	assert.Error(t, err)
}

func TestBcryptHasher_InvalidCost(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MaxCost + 1).Hash("password1")
	assert.Error(t, err)
}
