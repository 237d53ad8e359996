// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

// PasswordResetSubject is the subject line of the password-reset email.
const PasswordResetSubject = "Redefinição de Senha"

//go:embed templates/*.html
var templateFS embed.FS

var passwordResetTemplate = template.Must(template.ParseFS(templateFS, "templates/password_reset.html"))

// PasswordResetEmail holds the values rendered into the password-reset email.
type PasswordResetEmail struct {
	Username  string
	ResetLink string
	ExpiresIn time.Duration
}

// RenderPasswordResetEmail renders the HTML body of the password-reset email.
// The username is HTML-escaped; the link is rendered both as a button and as
// plain text.
func RenderPasswordResetEmail(data PasswordResetEmail) (string, error) {
	var buf bytes.Buffer

	err := passwordResetTemplate.Execute(&buf, struct {
		Username         string
		ResetLink        string
		ExpiresInMinutes int
	}{
		Username:         data.Username,
		ResetLink:        data.ResetLink,
		ExpiresInMinutes: int(data.ExpiresIn / time.Minute),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRenderingEmail, err)
	}

	return buf.String(), nil
}
