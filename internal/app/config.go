package app

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`

	DatabaseFile string `env:"DATABASE_FILE" envDefault:"scaffold.db"`
	PepperFile   string `env:"PEPPER_FILE" envDefault:"pepper"`

	Auth AuthConfig `envPrefix:"AUTH_"`
}

// AuthConfig carries every recognized token option. Defaults mirror the
// usual bearer-token middleware defaults: issuer, lifetime, and signature
// checks on; audience checks opt-in.
type AuthConfig struct {
	IssuerSigningKey string `env:"ISSUER_SIGNING_KEY"`

	Issuer   string        `env:"ISSUER" envDefault:"scaffold"`
	Audience string        `env:"AUDIENCE"`
	Expiry   time.Duration `env:"EXPIRY" envDefault:"15m"`

	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"720h"`

	// Disabled replaces authorization evaluation with always-allow. Local
	// and test environments only.
	Disabled bool `env:"DISABLED"`

	ValidIssuer    string   `env:"VALID_ISSUER"`
	ValidIssuers   []string `env:"VALID_ISSUERS"`
	ValidAudience  string   `env:"VALID_AUDIENCE"`
	ValidAudiences []string `env:"VALID_AUDIENCES"`

	ValidateIssuer           bool `env:"VALIDATE_ISSUER" envDefault:"true"`
	ValidateAudience         bool `env:"VALIDATE_AUDIENCE"`
	RequireAudience          bool `env:"REQUIRE_AUDIENCE"`
	ValidateLifetime         bool `env:"VALIDATE_LIFETIME" envDefault:"true"`
	ValidateTokenReplay      bool `env:"VALIDATE_TOKEN_REPLAY"`
	ValidateActor            bool `env:"VALIDATE_ACTOR"`
	ValidateIssuerSigningKey bool `env:"VALIDATE_ISSUER_SIGNING_KEY"`
	RequireExpirationTime    bool `env:"REQUIRE_EXPIRATION_TIME" envDefault:"true"`
	RequireSignedTokens      bool `env:"REQUIRE_SIGNED_TOKENS" envDefault:"true"`

	// Policies is the set of authorization policy names the service
	// registers. Each policy requires a permissions claim equal to its
	// name.
	Policies []string `env:"POLICIES" envDefault:"user-management.read,user-management.readwrite,user-management.delete,role-management.read,role-management.readwrite,role-management.delete"`

	SaveToken           bool   `env:"SAVE_TOKEN" envDefault:"true"`
	SaveSigninToken     bool   `env:"SAVE_SIGNIN_TOKEN"`
	IncludeErrorDetails bool   `env:"INCLUDE_ERROR_DETAILS"`
	Challenge           string `env:"CHALLENGE" envDefault:"Bearer"`

	// Recognized for config compatibility; there is no remote metadata
	// discovery, so setting these only produces a startup warning.
	Authority            string `env:"AUTHORITY"`
	MetadataAddress      string `env:"METADATA_ADDRESS"`
	RequireHttpsMetadata bool   `env:"REQUIRE_HTTPS_METADATA" envDefault:"true"`

	// Recognized but unused locally: token types carry their own claim
	// names here.
	AuthenticationType string `env:"AUTHENTICATION_TYPE"`
	NameClaimType      string `env:"NAME_CLAIM_TYPE"`
	RoleClaimType      string `env:"ROLE_CLAIM_TYPE"`

	RefreshOnIssuerKeyNotFound bool `env:"REFRESH_ON_ISSUER_KEY_NOT_FOUND" envDefault:"true"`

	CookieName     string `env:"COOKIE_NAME" envDefault:"__access-token"`
	CookieSecure   bool   `env:"COOKIE_SECURE"`
	ClientIDHeader string `env:"CLIENT_ID_HEADER" envDefault:"x-client-id"`
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
