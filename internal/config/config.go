package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The platform database settings point at the
// shared platform store; tenant store addresses live in tenant records,
// not here.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // platform database username
	DBPass    string // platform database password (optional)
	DBHost    string // platform database host address
	DBPort    string // platform database port number
	DBName    string // platform database name
	JWTSecret string // secret used to sign session tokens

	SessionTTLMin int // session token time-to-live in minutes
	BcryptCost    int // bcrypt cost for password hashing

	PlatformMaxConns int // connection bound for the platform store pool
	TenantMaxConns   int // connection bound per tenant store pool

	BillingAPIBase         string // billing provider API base URL
	BillingAPIKey          string // billing provider secret key
	BillingPriceStandard   string // provider price ref for the STANDARD plan
	BillingPriceEnterprise string // provider price ref for the ENTERPRISE plan
}

// Load reads configuration from environment variables. Required variables
// are enforced by must() and missing values cause the program to exit with
// a fatal log message; pool bounds default sensibly because operators
// rarely tune them.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		SessionTTLMin: mustInt("SESSION_TOKEN_TTL_MIN"),
		BcryptCost:    mustInt("BCRYPT_COST"),

		// The platform store serves every request; tenant pools are kept
		// small because many of them share one process.
		PlatformMaxConns: intDefault("PLATFORM_DB_MAX_CONNS", 25),
		TenantMaxConns:   intDefault("TENANT_DB_MAX_CONNS", 5),

		BillingAPIBase:         must("BILLING_API_BASE"),
		BillingAPIKey:          must("BILLING_API_KEY"),
		BillingPriceStandard:   must("BILLING_PRICE_STANDARD"),
		BillingPriceEnterprise: must("BILLING_PRICE_ENTERPRISE"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intDefault reads an optional integer variable with a fallback.
func intDefault(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
