package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	urlutil "github.com/law-makers/profilefeed/internal/utils/url"
)

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return urlutil.ValidateURL(fl.Field().String()) == nil
	})
	return v
}

// envNames maps config fields to the variable users set them with.
var envNames = map[string]string{
	"BooksBaseURL":      "BOOKS_BASE_URL",
	"BooksID":           "BOOKS_ID",
	"GamesURL":          "GAMES_URL",
	"GameSearchBaseURL": "GAME_SEARCH_BASE_URL",
	"S3Endpoint":        "AWS_S3_ENDPOINT",
	"S3AccessKeyID":     "AWS_S3_ACCESS_KEY_ID",
	"S3SecretAccessKey": "AWS_S3_SECRET_ACCESS_KEY",
	"MaxGames":          "PROFILEFEED_MAX_GAMES",
	"NavTimeout":        "--timeout",
	"RunTimeout":        "--run-timeout",
}

func validate(c *Config) error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			name := fe.Field()
			if env, ok := envNames[name]; ok {
				name = env
			}
			msgs = append(msgs, fmt.Sprintf("%s: failed %q check", name, fe.Tag()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	if c.Local {
		return nil
	}
	switch c.Store {
	case StoreS3:
		if c.Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET_NAME is required unless running with --local")
		}
	case StoreFile:
		if c.StoreDir == "" {
			return fmt.Errorf("--store-dir is required with --store=file")
		}
	}
	return nil
}
