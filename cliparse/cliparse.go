package cliparse

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/danielhkuo/attested-vote/auth"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Shared admin secret, compared against X-Admin-Key
	AdminKey string
	// Salt for client IP hashes in logs. Derived from AdminKey when unset.
	IPHashSalt string

	AttestTimeout time.Duration
	// Accept mock_android_token / mock_ios_token (development only)
	DevTokens bool

	// Android (Play Integrity)
	PlayPackageName       string
	GoogleCredentialsFile string

	// iOS (DeviceCheck)
	AppleKeyID       string
	AppleTeamID      string
	AppleP8          string
	AppleDevelopment bool
}

// LoadDotEnv loads variables from an env file without overriding the
// existing environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ParseFlags validates flags and fills unset values from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := pflag.NewFlagSet("attested-vote", pflag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVarP(&cfg.Port, "port", "p", 0, "Server port")
	fs.StringVarP(&cfg.DatabaseURL, "database-url", "d", "", "Database URL")
	fs.StringVarP(&cfg.DatabaseType, "database-type", "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Admin key (prefer env)")
	fs.StringVar(&cfg.IPHashSalt, "ip-hash-salt", "", "Salt for hashed client IPs in logs (prefer env)")

	// Attestation
	fs.DurationVar(&cfg.AttestTimeout, "attest-timeout", 0, "Timeout for a single attestation check")
	fs.BoolVar(&cfg.DevTokens, "dev-tokens", false, "Accept development attestation tokens")
	fs.StringVar(&cfg.PlayPackageName, "play-package", "", "Android package name for Play Integrity")
	fs.StringVar(&cfg.GoogleCredentialsFile, "google-credentials", "", "Service account JSON for Play Integrity")
	fs.StringVar(&cfg.AppleKeyID, "apple-key-id", "", "DeviceCheck key ID")
	fs.StringVar(&cfg.AppleTeamID, "apple-team-id", "", "Apple team ID")
	fs.StringVar(&cfg.AppleP8, "apple-p8", "", "DeviceCheck .p8 key contents (prefer env)")
	fs.BoolVar(&cfg.AppleDevelopment, "apple-development", false, "Use the DeviceCheck development environment")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3000 // default
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d out of range", cfg.Port)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	switch cfg.DatabaseType {
	case "sqlite", "postgres", "postgresql":
	default:
		return Config{}, fmt.Errorf("unsupported database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType != "sqlite" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "voting.db"
	}

	// Secrets - MUST be provided
	if cfg.AdminKey == "" {
		cfg.AdminKey = os.Getenv("ADMIN_KEY")
	}
	if cfg.AdminKey == "" {
		return Config{}, errors.New("ADMIN_KEY required")
	}

	envString(&cfg.IPHashSalt, "IP_HASH_SALT")
	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = auth.DeriveSalt(cfg.AdminKey, "ip-hash")
	}

	if cfg.AttestTimeout == 0 {
		if s := os.Getenv("ATTEST_TIMEOUT"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return Config{}, errors.New("invalid ATTEST_TIMEOUT env variable")
			}
			cfg.AttestTimeout = d
		} else {
			cfg.AttestTimeout = 5 * time.Second
		}
	}
	if cfg.AttestTimeout <= 0 {
		return Config{}, errors.New("attestation timeout must be positive")
	}

	if !fs.Changed("dev-tokens") {
		v, err := envBool("ATTEST_DEV_TOKENS")
		if err != nil {
			return Config{}, err
		}
		cfg.DevTokens = v
	}
	if !fs.Changed("apple-development") {
		v, err := envBool("APPLE_DEVICECHECK_DEVELOPMENT")
		if err != nil {
			return Config{}, err
		}
		cfg.AppleDevelopment = v
	}

	envString(&cfg.PlayPackageName, "PLAY_PACKAGE_NAME")
	envString(&cfg.GoogleCredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	envString(&cfg.AppleKeyID, "APPLE_KEY_ID")
	envString(&cfg.AppleTeamID, "APPLE_TEAM_ID")
	envString(&cfg.AppleP8, "APPLE_P8_FILE_CONTENT")

	return cfg, nil
}

func envString(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

func envBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s env variable", key)
	}
	return v, nil
}
