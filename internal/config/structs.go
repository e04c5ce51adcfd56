package config

import (
	"github.com/warga-app/warga-server/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Redis     Redis
	Kafka     Kafka
	OTP       OTP
	Session   Session
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}

// Redis holds the connection settings for the verification-code store.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Kafka holds the settings for the notification event stream.
// When Enabled is false the daemon falls back to a no-op publisher.
type Kafka struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// OTP holds settings for one-time verification codes.
type OTP struct {
	CodeLength int    // number of digits in emailed codes, default 6
	TTLMinutes int    // lifetime of a pending code, default 5
	Issuer     string // issuer name shown in authenticator apps for TOTP enrolment
}

// Session settings.
type Session struct {
	ExpiryHours int // lifetime of a bearer session token, default 72
}
