// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors logged by the transport layer before a request reaches the
// service layer. Callers can match against them with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is logged by the auth middleware when the
	// incoming request does not include an "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidAuthorizationHeader is logged when the "Authorization" header
	// is present but is not of the form "Bearer <token>".
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrInvalidJSON is logged when a request body cannot be decoded into
	// the expected payload.
	ErrInvalidJSON = errors.New("invalid JSON was passed")
)

// Client-facing messages written by the transport layer itself.
const (
	msgMissingAuthToken = "Token de autenticação ausente."
	msgInvalidAuthToken = "Token de autenticação inválido."
	msgInvalidJSON      = "Corpo da requisição inválido."
	msgRateLimited      = "Você atingiu o limite de requisições. Por favor, tente novamente em 15 minutos."
	msgRouteNotFound    = "Rota não encontrada."
)
