package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel          = "info"
	DefaultJSONLog           = false
	DefaultEnvFile           = ".env"
	DefaultGameSearchBaseURL = "https://thegamesdb.net/search.php?name="
	DefaultMaxGames          = 3
	DefaultStore             = StoreS3
	DefaultFormat            = "json"
	DefaultBrowserHeadless   = true
	DefaultNavTimeout        = 30 * time.Second
	DefaultRunTimeout        = 5 * time.Minute
	DefaultAddr              = ":8080"
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

// Blob store backends
const (
	StoreS3   = "s3"
	StoreFile = "file"
)
