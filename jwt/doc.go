// Package jwt mints and verifies the two signed credentials of a session: a
// short-lived access token and a longer-lived refresh token.
//
// Both tokens carry the account id as "sub", a unique "jti", "iat", "exp" and
// the account's session version as the integer claim "ver". Tokens minted in
// the same operation always carry the same version, so bumping the stored
// version invalidates both. The "typ" claim keeps one kind from being accepted
// as the other.
//
// Key material is checked once in [NewManager]. A misconfigured key fails
// construction instead of failing individual calls.
package jwt
