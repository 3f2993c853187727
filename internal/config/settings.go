package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults.
const (
	DefaultBaseURL    = "http://localhost:8080"
	DefaultTimeout    = 30 * time.Second
	DefaultKind       = "booth"
	DefaultSearchMode = "substring"
	DefaultAddr       = "localhost:8080"
	DefaultDriver     = "sqlite"
	DefaultLogLevel   = "info"
)

// Settings is the resolved configuration after flags, environment, file and
// defaults are merged.
type Settings struct {
	BaseURL    string        `flag:"base-url" validate:"required,url"`
	Timeout    time.Duration `flag:"timeout" validate:"gt=0"`
	Kind       string        `flag:"kind" validate:"oneof=booth ward"`
	District   int64         `flag:"district" validate:"gte=0"`
	Scope      int64         `flag:"scope" validate:"gte=0"`
	SearchMode string        `flag:"search-mode" validate:"oneof=substring fuzzy"`
	Addr       string        `flag:"addr" validate:"required"`
	Driver     string        `flag:"driver" validate:"oneof=sqlite postgres"`
	DSN        string        `flag:"dsn" validate:"required"`
	Origins    []string      `flag:"origins"`
	LogLevel   string        `flag:"log-level" validate:"oneof=error warn info debug"`
	LogPath    string        `flag:"log-path"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		Kind:       DefaultKind,
		SearchMode: DefaultSearchMode,
		Addr:       DefaultAddr,
		Driver:     DefaultDriver,
		DSN:        DefaultDBPath(),
		LogLevel:   DefaultLogLevel,
		LogPath:    DefaultLogPath(),
	}
}

// ParseTimeout parses a duration value such as "15s".
func ParseTimeout(value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", value, err)
	}
	return d, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("flag"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate checks every field and reports the first problem by flag name.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("--%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required":
		return fmt.Errorf("--%s must not be empty", fe.Field())
	case "url":
		return fmt.Errorf("--%s must be an absolute URL", fe.Field())
	case "gt":
		return fmt.Errorf("--%s must be > %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Errorf("--%s must be >= %s", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("--%s is invalid", fe.Field())
	}
}
