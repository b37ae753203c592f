package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidateOptions provides options for validation
type ValidateOptions struct {
	AllowNoIntegrations bool // Used by the create wizard on a fresh config
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	return c.ValidateWithOptions(ValidateOptions{})
}

// ValidateWithOptions validates the configuration with custom options
func (c *Config) ValidateWithOptions(opts ValidateOptions) error {
	var errors ValidationErrors

	if c.App.LogLevel != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		if !contains(validLevels, c.App.LogLevel) {
			errors = append(errors, ValidationError{
				Field:   "app.log_level",
				Message: fmt.Sprintf("must be one of: %v", validLevels),
			})
		}
	}

	if c.App.LogFormat != "" {
		validFormats := []string{"plain", "timestamped"}
		if !contains(validFormats, c.App.LogFormat) {
			errors = append(errors, ValidationError{
				Field:   "app.log_format",
				Message: fmt.Sprintf("must be one of: %v", validFormats),
			})
		}
	}

	if c.Daemon.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "daemon.url",
			Message: "daemon URL is required",
		})
	} else if !isHTTPURL(c.Daemon.URL) {
		errors = append(errors, ValidationError{
			Field:   "daemon.url",
			Message: fmt.Sprintf("invalid URL: %s", c.Daemon.URL),
		})
	}

	if c.Daemon.TimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "daemon.timeout_seconds",
			Message: "timeout must be non-negative",
		})
	}

	if len(c.Integrations) == 0 && !opts.AllowNoIntegrations {
		errors = append(errors, ValidationError{
			Field:   "integrations",
			Message: "at least one integration must be configured",
		})
	}

	ids := make(map[string]bool)
	aliases := make(map[string]bool)
	for i, integration := range c.Integrations {
		field := fmt.Sprintf("integrations[%d]", i)

		if integration.ID == "" {
			errors = append(errors, ValidationError{Field: field + ".id", Message: "id is required"})
		} else if ids[integration.ID] {
			errors = append(errors, ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate id: %s", integration.ID)})
		}
		ids[integration.ID] = true

		if integration.Alias == "" {
			errors = append(errors, ValidationError{Field: field + ".alias", Message: "alias is required"})
		} else if aliases[integration.Alias] {
			errors = append(errors, ValidationError{Field: field + ".alias", Message: fmt.Sprintf("duplicate alias: %s", integration.Alias)})
		}
		aliases[integration.Alias] = true

		if !isHTTPURL(integration.PortalURL) {
			errors = append(errors, ValidationError{
				Field:   field + ".portal_url",
				Message: fmt.Sprintf("invalid portal URL: %s", integration.PortalURL),
			})
		}

		if integration.BrowserOpening != "" &&
			integration.BrowserOpening != BrowserOpeningInApp &&
			integration.BrowserOpening != BrowserOpeningExternal {
			errors = append(errors, ValidationError{
				Field:   field + ".browser_opening",
				Message: fmt.Sprintf("must be one of: [%s %s]", BrowserOpeningInApp, BrowserOpeningExternal),
			})
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Server.ScheduleEnabled && c.Server.Schedule == "" {
		errors = append(errors, ValidationError{
			Field:   "server.schedule",
			Message: "schedule must be provided when schedule_enabled is true",
		})
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
