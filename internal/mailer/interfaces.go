// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package mailer

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/mailer_mock.go -package=mock

// Mailer delivers a single HTML message. Delivery failures are returned to
// the caller, never swallowed.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}
