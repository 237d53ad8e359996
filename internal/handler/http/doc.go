// Package http implements the REST transport of the authentication server.
//
// It wires the chi router, the request handlers of the /api/auth and
// /api/user routes, and the middleware in front of them: request tracing,
// access logging, Prometheus metrics, per-IP rate limiting and bearer-token
// authentication. Service failures are mapped to status codes by their
// [service.ErrorKind] and rendered as {"success": false, "message": ...}.
package http
