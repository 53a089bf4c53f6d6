package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port        int
	JWTSecret   string
	DatabaseURL string
	CORSOrigins []string

	// Licensing system (customer directory + purchases).
	LicensingURL    string
	LicensingAPIKey string

	// Payments API fronting Razorpay (defaults to the licensing system,
	// which hosts the payment endpoints).
	PaymentsURL       string
	RazorpayKeySecret string

	// Where free-plan activations redirect to.
	AppURL string

	// How long a paid checkout may sit waiting for the gateway callback
	// before the attempt expires and the user can retry.
	GatewayTimeout time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port, _ := strconv.Atoi(getEnv("PORT", "4002"))

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	licensingURL := getEnv("LICENSING_URL", "")
	if licensingURL == "" {
		return nil, fmt.Errorf("LICENSING_URL is required")
	}

	licensingKey := getEnv("LICENSING_API_KEY", "")
	if licensingKey == "" {
		return nil, fmt.Errorf("LICENSING_API_KEY is required")
	}

	rzpSecret := getEnv("RAZORPAY_KEY_SECRET", "")
	if rzpSecret == "" {
		return nil, fmt.Errorf("RAZORPAY_KEY_SECRET is required")
	}

	timeout, err := time.ParseDuration(getEnv("GATEWAY_TIMEOUT", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TIMEOUT: %w", err)
	}

	origins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,https://workeye.app"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		Port:              port,
		JWTSecret:         jwtSecret,
		DatabaseURL:       dbURL,
		CORSOrigins:       origins,
		LicensingURL:      strings.TrimRight(licensingURL, "/"),
		LicensingAPIKey:   licensingKey,
		PaymentsURL:       strings.TrimRight(getEnv("PAYMENTS_URL", licensingURL), "/"),
		RazorpayKeySecret: rzpSecret,
		AppURL:            getEnv("APP_URL", "https://app.workeye.app"),
		GatewayTimeout:    timeout,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
