// Package main provides the entry point for the warga community platform
// backend. It runs a JSON API server built on the Fiber framework that
// manages user accounts with OTP login, communities with per-community
// roles and permission flags, posts, comments, and notifications. The
// application uses gorm for data persistence and Redis for short-lived
// verification codes.
package main
