package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Config holds application configuration values. It is built once by the
// CLI and passed down by value; nothing below the CLI reads the environment.
type Config struct {
	// Logging
	LogLevel string `validate:"oneof=debug info warn error"`
	JSONLog  bool
	Quiet    bool

	// Sources
	BooksBaseURL      string `validate:"required,httpurl"`
	BooksID           string `validate:"required"`
	GamesURL          string `validate:"required,httpurl"`
	GameSearchBaseURL string `validate:"required,httpurl"`
	MaxGames          int    `validate:"min=1,max=50"`

	// Publishing
	Store       string `validate:"oneof=s3 file"`
	StoreDir    string
	AWSRegion   string
	Bucket      string
	BucketDir   string
	S3Endpoint  string `validate:"omitempty,httpurl"`
	S3PathStyle bool
	// Static keys for S3-compatible stores; empty means the default AWS chain.
	S3AccessKeyID     string `validate:"required_with=S3SecretAccessKey"`
	S3SecretAccessKey string `validate:"required_with=S3AccessKeyID"`

	// Local mode
	Local  bool
	Output string
	Format string `validate:"oneof=json csv"`

	// Browser
	ChromePath string
	Headless   bool
	UserAgent  string
	Proxy      string
	NavTimeout time.Duration `validate:"gt=0"`
	RunTimeout time.Duration `validate:"gt=0"`

	// Trigger server
	Addr string `validate:"required"`
}

// Load builds a Config by combining defaults, an optional .env file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		GameSearchBaseURL: DefaultGameSearchBaseURL,
		MaxGames:          DefaultMaxGames,
		Store:             DefaultStore,
		Format:            DefaultFormat,
		Headless:          DefaultBrowserHeadless,
		UserAgent:         DefaultUserAgent,
		NavTimeout:        DefaultNavTimeout,
		RunTimeout:        DefaultRunTimeout,
		Addr:              DefaultAddr,
	}

	if err := loadEnvFile(cmd); err != nil {
		return nil, err
	}
	if err := fromEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if cmd != nil {
		if err := fromFlags(cmd, cfg); err != nil {
			return nil, fmt.Errorf("invalid flags: %w", err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadEnvFile reads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. The default file is optional;
// an explicitly requested one must exist.
func loadEnvFile(cmd *cobra.Command) error {
	path, explicit := DefaultEnvFile, false
	if cmd != nil {
		if f := cmd.Flags().Lookup("env-file"); f != nil && f.Changed {
			path, explicit = f.Value.String(), true
		}
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func fromEnv(cfg *Config) error {
	strs := map[string]*string{
		"BOOKS_BASE_URL":           &cfg.BooksBaseURL,
		"BOOKS_ID":                 &cfg.BooksID,
		"GAMES_URL":                &cfg.GamesURL,
		"GAME_SEARCH_BASE_URL":     &cfg.GameSearchBaseURL,
		"AWS_REGION":               &cfg.AWSRegion,
		"AWS_S3_BUCKET_NAME":       &cfg.Bucket,
		"AWS_S3_BUCKET_DIR":        &cfg.BucketDir,
		"AWS_S3_ENDPOINT":          &cfg.S3Endpoint,
		"AWS_S3_ACCESS_KEY_ID":     &cfg.S3AccessKeyID,
		"AWS_S3_SECRET_ACCESS_KEY": &cfg.S3SecretAccessKey,
		"PROFILEFEED_STORE":        &cfg.Store,
		"PROFILEFEED_STORE_DIR":    &cfg.StoreDir,
		"PROFILEFEED_CHROME_PATH":  &cfg.ChromePath,
		"PROFILEFEED_USER_AGENT":   &cfg.UserAgent,
		"PROFILEFEED_PROXY":        &cfg.Proxy,
		"PROFILEFEED_OUTPUT":       &cfg.Output,
		"PROFILEFEED_FORMAT":       &cfg.Format,
		"PROFILEFEED_ADDR":         &cfg.Addr,
		"PROFILEFEED_LOG_LEVEL":    &cfg.LogLevel,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"PROFILEFEED_LOCAL":       &cfg.Local,
		"PROFILEFEED_JSON_LOG":    &cfg.JSONLog,
		"AWS_S3_FORCE_PATH_STYLE": &cfg.S3PathStyle,
	}
	for name, dst := range bools {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = b
		}
	}

	if v := os.Getenv("PROFILEFEED_MAX_GAMES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PROFILEFEED_MAX_GAMES: %w", err)
		}
		cfg.MaxGames = n
	}

	durations := map[string]*time.Duration{
		"PROFILEFEED_NAV_TIMEOUT": &cfg.NavTimeout,
		"PROFILEFEED_RUN_TIMEOUT": &cfg.RunTimeout,
	}
	for name, dst := range durations {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = d
		}
	}

	return nil
}

func fromFlags(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()

	strs := map[string]*string{
		"chrome-path": &cfg.ChromePath,
		"user-agent":  &cfg.UserAgent,
		"proxy":       &cfg.Proxy,
		"store":       &cfg.Store,
		"store-dir":   &cfg.StoreDir,
		"output":      &cfg.Output,
		"format":      &cfg.Format,
		"addr":        &cfg.Addr,
	}
	for name, dst := range strs {
		if f := flags.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}

	if f := flags.Lookup("timeout"); f != nil && f.Changed {
		d, err := time.ParseDuration(f.Value.String())
		if err != nil {
			return fmt.Errorf("--timeout: %w", err)
		}
		cfg.NavTimeout = d
	}
	if f := flags.Lookup("run-timeout"); f != nil && f.Changed {
		d, err := time.ParseDuration(f.Value.String())
		if err != nil {
			return fmt.Errorf("--run-timeout: %w", err)
		}
		cfg.RunTimeout = d
	}

	if changed(cmd, "local") {
		cfg.Local = flagBool(cmd, "local")
	}
	if changed(cmd, "headful") {
		cfg.Headless = !flagBool(cmd, "headful")
	}
	if changed(cmd, "json") {
		cfg.JSONLog = flagBool(cmd, "json")
	}
	if changed(cmd, "quiet") {
		cfg.Quiet = flagBool(cmd, "quiet")
	}
	if flagBool(cmd, "verbose") {
		cfg.LogLevel = "debug"
	}

	return nil
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func flagBool(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Value.String() == "true"
}
