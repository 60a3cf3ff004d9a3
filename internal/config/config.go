package config

import (
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
)

// AppConfig carries the transport and crypto settings read from the
// environment at startup.
type AppConfig struct {
	Port        string
	JWTKey      []byte
	CORSOrigins []string
	// PEM-encoded RSA private key for signing outbound notifications.
	// Fan-out payloads go unsigned when empty.
	SigningKeyPEM string
}

func NewAppConfig() *AppConfig {
	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey == "" {
		log.Fatal("JWT_KEY not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	origins := []string{"http://localhost:5173"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}

	return &AppConfig{
		Port:          port,
		JWTKey:        []byte(jwtKey),
		CORSOrigins:   origins,
		SigningKeyPEM: os.Getenv("SERVER_SIGNING_PRIVATE"),
	}
}

// NewLogger also installs the logger as zap's process global, which is what
// the error-envelope translation uses to record internal failures.
func NewLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
