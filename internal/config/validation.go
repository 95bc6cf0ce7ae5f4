package config

import (
	"fmt"
	"net/url"
	"strings"

	"linkstash/internal/tokenstore"
	"linkstash/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateBaseURL checks that raw is an absolute http(s) URL.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ValidationError{Field: "baseUrl", Value: raw, Message: fmt.Sprintf("is not a valid URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: "baseUrl", Value: raw, Message: "must use http or https"}
	}
	if u.Host == "" {
		return ValidationError{Field: "baseUrl", Value: raw, Message: "must include a host"}
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return ValidationError{Field: "baseUrl", Value: raw, Message: "must not carry a query or fragment"}
	}
	return nil
}

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() error {
	var errs ValidationErrors

	if err := ValidateBaseURL(c.BaseURL); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if c.CallbackPort < 0 || c.CallbackPort > 65535 {
		errs.Add("callbackPort", "must be between 0 and 65535", c.CallbackPort)
	}
	if c.HTTPTimeout <= 0 {
		errs.Add("httpTimeout", "must be positive", c.HTTPTimeout)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.Add("logLevel", err.Error(), c.LogLevel)
	}

	switch strings.ToLower(c.TokenStore.Backend) {
	case tokenstore.BackendFile, tokenstore.BackendMemory, tokenstore.BackendSQLite:
	case tokenstore.BackendRedis:
		if c.TokenStore.RedisAddr == "" {
			errs.Add("tokenStore.redisAddr", "is required for the redis backend")
		}
	default:
		errs.Add("tokenStore.backend", "must be one of file, memory, sqlite, redis", c.TokenStore.Backend)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
