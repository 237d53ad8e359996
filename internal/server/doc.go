// Package server runs the HTTP server of the application together with its
// background workers, including signal handling and graceful shutdown.
package server
