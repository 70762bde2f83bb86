// Package common contains shared constants and sentinel errors used across
// gophgate components.
package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
// carries the bearer credential.
const AuthorizationHeaderName = "authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// RequestIDHeaderName is echoed back on every HTTP response.
const RequestIDHeaderName = "X-Request-ID"
