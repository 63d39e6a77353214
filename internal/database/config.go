package database

import (
	"net"
	"net/url"
	"os"
	"strconv"
)

// Config holds database configuration
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN renders a postgres:// URL for lib/pq. Credentials are escaped, so
// empty values and spaces survive.
func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// GetTestConfig returns database config for integration tests
func GetTestConfig() Config {
	port := 5432
	if p, err := strconv.Atoi(getEnv("TEST_DB_PORT", "5432")); err == nil {
		port = p
	}
	return Config{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     port,
		Database: getEnv("TEST_DB_NAME", "harborwatch_test"),
		User:     getEnv("TEST_DB_USER", "harborwatch"),
		Password: getEnv("TEST_DB_PASSWORD", "harborwatch"),
		SSLMode:  "disable",
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
