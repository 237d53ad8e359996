package server

import "context"

// Server defines the lifecycle contract of the application server.
type Server interface {
	// Run serves requests and runs the background workers until ctx is
	// cancelled, then shuts everything down gracefully.
	Run(ctx context.Context) error

	// RunServer calls Run with a context that is cancelled by SIGINT,
	// SIGTERM or SIGQUIT, and logs the outcome.
	RunServer()
}
