// Package auth is the session issuance and revocation engine of the forum.
//
// Every access and refresh token carries the account's session version in a
// "ver" claim. Login, refresh, logout and password reset each add exactly one
// to the stored version, which invalidates every token minted before. A
// revocation cache keeps the per-request check off the database; every
// version mutation republishes the new value so a bump is visible at once.
//
// # Usage
//
//	engine, err := auth.New().
//		WithConfig(cfg).
//		WithStore(store).
//		WithRedis(rdb).
//		WithLogger(logger).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer engine.Close()
//
//	pair, err := engine.Login(ctx, "alice", "correct horse battery")
//	res, err := engine.ValidateAccess(ctx, pair.AccessToken)
//
// Business rejections come back as *[Rejection]. Match them with errors.Is
// against the taxonomy sentinels ([ErrInvalidCredentials],
// [ErrAccountBanned], [ErrSessionSuperseded] and friends) or inspect the
// kind with [AsRejection]. Infrastructure failures wrap [ErrStoreUnavailable].
package auth
