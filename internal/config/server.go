package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// ServerConfig holds the HTTP listener settings for the webhook server.
type ServerConfig struct {
	// Host to bind to. Empty binds all interfaces.
	Host string
	// Port with or without a leading colon.
	Port string
	// ReadTimeout caps reading a full webhook delivery. GitHub payloads are
	// small, so this mostly guards against slow clients.
	ReadTimeout time.Duration
	// WriteTimeout caps writing the response.
	WriteTimeout time.Duration
	// IdleTimeout is how long a keep-alive connection may sit unused.
	IdleTimeout time.Duration
}

// LoadServerConfigFromEnv reads SERVER_* environment variables, falling back
// to defaults suitable for local development.
func LoadServerConfigFromEnv() ServerConfig {
	return ServerConfig{
		Host:         GetEnv("SERVER_HOST", ""),
		Port:         GetEnv("SERVER_PORT", ":8080"),
		ReadTimeout:  GetEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: GetEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		IdleTimeout:  GetEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
	}
}

// GetAddress builds the listen address in host:port form.
func (c ServerConfig) GetAddress() string {
	if c.Host == "" {
		return c.Port
	}
	return net.JoinHostPort(c.Host, strings.TrimPrefix(c.Port, ":"))
}

// Validate rejects non-positive timeouts before they reach http.Server, where
// zero would silently disable the limit.
func (c ServerConfig) Validate() error {
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("ReadTimeout must be greater than 0")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("WriteTimeout must be greater than 0")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("IdleTimeout must be greater than 0")
	}
	return nil
}
