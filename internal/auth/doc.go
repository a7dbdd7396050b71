// Package auth issues and validates the bearer tokens that guard the
// control API.
//
// Tokens are HS256 JWTs carrying a subject and a Role. There is no user
// database: operators mint tokens with `tickpilot token` using the secret
// from security.jwt.secret, and the API checks signature, issuer and
// expiry on every request.
//
// Roles form a ladder (viewer → operator → admin). Each route declares the
// Permission it needs and HasPermission answers from a static table.
package auth
