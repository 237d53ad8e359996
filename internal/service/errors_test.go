package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(ErrEmailInUse))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("register: %w", ErrUsernameInUse)))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnexpected, KindOf(nil))
}

func TestMessageOf_HidesUnexpectedDetail(t *testing.T) {
	err := unexpected(errors.New("pq: password authentication failed for user \"app\""))

	assert.Equal(t, "Erro interno do servidor.", MessageOf(err))
	assert.Equal(t, "Erro interno do servidor.", MessageOf(errors.New("raw")))
	assert.Equal(t, "Credenciais inválidas", MessageOf(ErrInvalidCredentials))
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "account_locked", KindAccountLocked.String())
	assert.Equal(t, "unknown", ErrorKind(99).String())
}
