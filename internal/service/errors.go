// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failures of [AuthService] so that transports can
// map them to their own status codes.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindMissingField
	KindInvalidFormat
	KindConflict
	KindInvalidCredentials
	KindAccountLocked
	KindTokenInvalidOrExpired
	KindNotFound
	KindUnauthorized
)

var kindNames = map[ErrorKind]string{
	KindUnexpected:            "unexpected",
	KindMissingField:          "missing_field",
	KindInvalidFormat:         "invalid_format",
	KindConflict:              "conflict",
	KindInvalidCredentials:    "invalid_credentials",
	KindAccountLocked:         "account_locked",
	KindTokenInvalidOrExpired: "token_invalid_or_expired",
	KindNotFound:              "not_found",
	KindUnauthorized:          "unauthorized",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is a failure whose Message may be shown to the end user as is.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrMissingFields        = newError(KindMissingField, "Todos os campos são obrigatórios")
	ErrEmailRequired        = newError(KindMissingField, "O e-mail é obrigatório")
	ErrResetTokenMissing    = newError(KindMissingField, "Token de redefinição de senha ausente")
	ErrRefreshTokenRequired = newError(KindMissingField, "O token de atualização é necessário")

	ErrInvalidUsername = newError(KindInvalidFormat, "O nome de usuário é obrigatório e deve ter entre 3 e 50 caracteres.")
	ErrInvalidEmail    = newError(KindInvalidFormat, "O e-mail é obrigatório e deve ser válido.")
	ErrInvalidPassword = newError(KindInvalidFormat, "A senha é obrigatória e deve ter entre 8 e 128 caracteres e as senhas devem coincidir.")

	ErrEmailInUse    = newError(KindConflict, "Email já está em uso")
	ErrUsernameInUse = newError(KindConflict, "Nome de usuário já está em uso")

	ErrInvalidCredentials = newError(KindInvalidCredentials, "Credenciais inválidas")
	ErrWrongOldPassword   = newError(KindInvalidCredentials, "Senha antiga inválida.")

	ErrAccountLocked = newError(KindAccountLocked, "Conta bloqueada devido a várias tentativas de login. Tente novamente mais tarde.")

	ErrResetTokenInvalid = newError(KindTokenInvalidOrExpired, "Token inválido ou expirado")
	ErrResetLinkInvalid  = newError(KindTokenInvalidOrExpired, "Token de redefinição de senha inválido ou expirado")

	ErrUserNotFound = newError(KindNotFound, "Usuário não encontrado")

	ErrRefreshTokenInvalid = newError(KindUnauthorized, "Token de atualização inválido")
	ErrAccessTokenInvalid  = newError(KindUnauthorized, "Token de autenticação inválido.")

	// ErrUnexpected wraps store and mailer failures. Its message never
	// carries the underlying detail.
	ErrUnexpected = newError(KindUnexpected, "Erro interno do servidor.")
)

var ErrVersionIsNotSpecified = errors.New("app version is not specified")

// KindOf returns the kind of the first [*Error] in err's chain, or
// [KindUnexpected] when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// MessageOf returns the user-facing message of err. Errors that are not
// an [*Error] yield the message of [ErrUnexpected].
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrUnexpected.Message
}

func unexpected(err error) error {
	return fmt.Errorf("%w: %w", ErrUnexpected, err)
}
