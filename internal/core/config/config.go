package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"storefront-checkout/internal/core/proxy"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the checkout service.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Storefront holds the remote storefront backend settings.
	Storefront StorefrontConfig `mapstructure:",squash"`

	// Redis holds the session and status store settings.
	Redis RedisConfig `mapstructure:",squash"`

	// Payments tunes the payment reconciliation loop.
	Payments PaymentsConfig `mapstructure:",squash"`
}

// StorefrontConfig points at the storefront REST backend.
type StorefrontConfig struct {
	// URL is the base URL of the backend, without a trailing slash.
	URL string `mapstructure:"STOREFRONT_API_URL" required:"true"`
	// TimeoutSeconds bounds every outbound request.
	TimeoutSeconds int `mapstructure:"STOREFRONT_TIMEOUT_SECONDS" default:"10"`
	// Proxy routes backend calls through an egress proxy when enabled.
	Proxy proxy.Settings `mapstructure:",squash"`
}

// Timeout returns the per-request timeout.
func (c StorefrontConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig holds the redis connection used for sessions and payment status.
type RedisConfig struct {
	// URL has the form redis://[:password@]host[:port][/database].
	URL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`
	// SessionTTLHours is how long a login survives without logout.
	SessionTTLHours int `mapstructure:"SESSION_TTL_HOURS" default:"168"`
}

// SessionTTL returns the session lifetime.
func (c RedisConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// PaymentsConfig holds the reconciliation loop knobs.
type PaymentsConfig struct {
	// PollIntervalSeconds is the delay between two order status polls.
	PollIntervalSeconds int `mapstructure:"PAYMENT_POLL_INTERVAL_SECONDS" default:"5"`
	// PollMaxAttempts caps the number of polls before giving up with a timeout.
	PollMaxAttempts int `mapstructure:"PAYMENT_POLL_MAX_ATTEMPTS" default:"60"`
	// ConfirmRetries is how many times a transient confirmation failure is retried.
	ConfirmRetries int `mapstructure:"PAYMENT_CONFIRM_RETRIES" default:"1"`
	// WidgetEnabled turns the widget callback path on; polling always runs.
	WidgetEnabled bool `mapstructure:"PAYMENT_WIDGET_ENABLED" default:"true"`
	// GatewayKeyID is the public key handed to front ends to open the gateway widget.
	GatewayKeyID string `mapstructure:"PAYMENT_GATEWAY_KEY_ID"`
	// StatusTTLMinutes is how long a finished reconciliation status stays queryable.
	StatusTTLMinutes int `mapstructure:"PAYMENT_STATUS_TTL_MINUTES" default:"60"`
}

// PollInterval returns the delay between polls.
func (c PaymentsConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// StatusTTL returns the retention of finished statuses.
func (c PaymentsConfig) StatusTTL() time.Duration {
	return time.Duration(c.StatusTTLMinutes) * time.Minute
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if config.Payments.PollIntervalSeconds <= 0 || config.Payments.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("invalid payment polling configuration: interval=%ds attempts=%d",
			config.Payments.PollIntervalSeconds, config.Payments.PollMaxAttempts)
	}

	return &config, nil
}

// processTags walks the struct fields, binds every key to the environment and
// registers the declared defaults in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		if key == "" {
			continue
		}

		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}

		if defaultValue := field.Tag.Get("default"); defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") != "true" {
			continue
		}
		if val.Field(i).IsZero() {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}
