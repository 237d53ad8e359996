package mailer

import "errors"

var (
	ErrUnknownProvider  = errors.New("unknown mail provider")
	ErrInvalidSender    = errors.New("invalid sender address")
	ErrInvalidRecipient = errors.New("invalid recipient address")
	ErrDeliveryFailed   = errors.New("mail delivery failed")
	ErrRenderingEmail   = errors.New("error rendering email")
)
