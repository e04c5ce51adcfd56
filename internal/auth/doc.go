// Package auth provides account and session management for the application.
//
// Accounts are created and logged in through emailed one-time codes; a
// password with Argon2id hashing and a TOTP second factor are both optional
// additions a user can enable afterwards.
//
// # OTP Flows
//
// RequestCode generates a short numeric code, stores it in Redis with a
// five-minute TTL, and hands it to the configured Dispatcher for delivery.
// Register and LoginWithCode consume the code exactly once.
//
// # Sessions
//
// Successful registration or login issues a bearer token persisted in the
// sessions table with an expiry. UserFromToken resolves the token back to an
// account; expired rows are purged by the daemon's housekeeping job.
//
// # Middleware
//
// RequireAuth is a Fiber middleware that resolves the Authorization bearer
// header and stores the account in the request locals for handlers.
package auth
