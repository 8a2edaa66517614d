// Package authgate is an embeddable authentication and credential-lifecycle
// engine: login verification under brute-force lockout, adaptive CAPTCHA
// gating, fixation-safe session issuance, and single-use password-reset
// tokens.
//
// The engine keeps its time-windowed state (failed-attempt rows, reset
// tokens, sessions, security settings) in Redis and consumes the host
// application's user database through the narrow [UserStore] interface.
// Construction goes through [Builder]:
//
//	engine, err := authgate.New().
//		WithRedis(rdb).
//		WithUserStore(store).
//		WithMailer(mailer).
//		Build()
//
// All operations are request-scoped; apart from the optional audit
// dispatcher, the engine runs no background goroutines.
package authgate
