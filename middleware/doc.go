// Package middleware is the request guard in front of protected routes.
//
// [Guard] validates the bearer access token of every request whose path is
// not on the public allow-list and stores the [auth.AuthResult] in the
// request context. [GinGuard] is the same guard for gin routers.
//
// Role checks go through a [RoleLookup] against the store; the role claim in
// the token is informational and never trusted for privilege decisions.
package middleware
