package setup

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gobeyondidentity/ssoctl/internal/config"
	"github.com/gobeyondidentity/ssoctl/internal/integration"
)

// DaemonPinger checks that the session daemon answers
type DaemonPinger interface {
	Ping(ctx context.Context) error
}

// TokenChecker reports the SSO token status of each configured integration
type TokenChecker interface {
	GetIntegrations() []*integration.Integration
	Status(ctx context.Context, target *integration.Integration) integration.TokenStatus
}

// Validator handles setup validation and connectivity testing
type Validator struct {
	config *config.Config
	daemon DaemonPinger
	tokens TokenChecker
	out    io.Writer
}

// ValidationResult represents the result of a validation check
type ValidationResult struct {
	Component string        `json:"component"`
	Status    string        `json:"status"`
	Message   string        `json:"message"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// ValidationSummary contains overall validation results
type ValidationSummary struct {
	OverallStatus string              `json:"overall_status"`
	TotalChecks   int                 `json:"total_checks"`
	Passed        int                 `json:"passed"`
	Failed        int                 `json:"failed"`
	Results       []*ValidationResult `json:"results"`
	Duration      time.Duration       `json:"duration"`
}

// NewValidator creates a new setup validator
func NewValidator(cfg *config.Config, daemon DaemonPinger, tokens TokenChecker) *Validator {
	return &Validator{
		config: cfg,
		daemon: daemon,
		tokens: tokens,
		out:    os.Stdout,
	}
}

// ValidateSetup performs comprehensive setup validation
func (v *Validator) ValidateSetup(ctx context.Context) *ValidationSummary {
	startTime := time.Now()

	fmt.Fprintln(v.out, "🔍 Validating ssoctl setup")
	fmt.Fprintln(v.out, "═════════════════════════")
	fmt.Fprintln(v.out)

	summary := &ValidationSummary{
		Results: make([]*ValidationResult, 0),
	}

	v.addResult(summary, v.validateConfiguration())
	v.addResult(summary, v.validateDaemon(ctx))

	for _, target := range v.tokens.GetIntegrations() {
		v.addResult(summary, v.validateIntegration(ctx, target))
	}

	summary.Duration = time.Since(startTime)
	summary.TotalChecks = len(summary.Results)

	for _, result := range summary.Results {
		if result.Status == "PASS" {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if summary.Failed == 0 {
		summary.OverallStatus = "PASS"
	} else {
		summary.OverallStatus = "FAIL"
	}

	v.printSummary(summary)

	return summary
}

// validateConfiguration validates the configuration structure
func (v *Validator) validateConfiguration() *ValidationResult {
	fmt.Fprint(v.out, "📋 Configuration validation... ")
	start := time.Now()

	if err := v.config.Validate(); err != nil {
		return v.fail("Configuration", "Configuration validation failed", err.Error(), start)
	}

	return v.pass("Configuration", "Configuration is valid",
		fmt.Sprintf("%d integrations configured", len(v.config.Integrations)), start)
}

// validateDaemon checks that the session daemon is reachable
func (v *Validator) validateDaemon(ctx context.Context) *ValidationResult {
	fmt.Fprint(v.out, "🔌 Session daemon connectivity... ")
	start := time.Now()

	if err := v.daemon.Ping(ctx); err != nil {
		return v.fail("Session daemon", "Failed to reach the session daemon", err.Error(), start)
	}

	return v.pass("Session daemon", "Session daemon is reachable",
		fmt.Sprintf("Endpoint: %s", v.config.Daemon.URL), start)
}

// validateIntegration checks that an integration holds a usable SSO token
func (v *Validator) validateIntegration(ctx context.Context, target *integration.Integration) *ValidationResult {
	fmt.Fprintf(v.out, "🔑 Integration %s... ", target.Alias)
	start := time.Now()
	component := fmt.Sprintf("Integration %s", target.Alias)

	status := v.tokens.Status(ctx, target)
	switch {
	case status.Online:
		return v.pass(component, "SSO token is valid",
			fmt.Sprintf("Expires at %s", status.Expires.Format(time.RFC3339)), start)
	case !status.Expires.IsZero():
		return v.fail(component, "SSO token expired",
			fmt.Sprintf("Expired at %s, sign in again at %s", status.Expires.Format(time.RFC3339), target.PortalURL), start)
	default:
		details := "no cached token"
		if status.Err != nil {
			details = status.Err.Error()
		}
		return v.fail(component, "SSO token unavailable", details, start)
	}
}

func (v *Validator) pass(component, message, details string, start time.Time) *ValidationResult {
	fmt.Fprintln(v.out, "✅ PASS")
	return &ValidationResult{
		Component: component,
		Status:    "PASS",
		Message:   message,
		Details:   details,
		Duration:  time.Since(start),
	}
}

func (v *Validator) fail(component, message, details string, start time.Time) *ValidationResult {
	fmt.Fprintln(v.out, "❌ FAIL")
	return &ValidationResult{
		Component: component,
		Status:    "FAIL",
		Message:   message,
		Details:   details,
		Duration:  time.Since(start),
	}
}

// addResult adds a validation result to the summary
func (v *Validator) addResult(summary *ValidationSummary, result *ValidationResult) {
	summary.Results = append(summary.Results, result)
}

// printSummary prints the validation summary
func (v *Validator) printSummary(summary *ValidationSummary) {
	fmt.Fprintln(v.out)
	fmt.Fprintln(v.out, "📊 Validation Summary")
	fmt.Fprintln(v.out, "════════════════════")

	if summary.OverallStatus == "PASS" {
		fmt.Fprintf(v.out, "✅ Overall Status: %s\n", summary.OverallStatus)
	} else {
		fmt.Fprintf(v.out, "❌ Overall Status: %s\n", summary.OverallStatus)
	}

	fmt.Fprintf(v.out, "📈 Results: %d passed, %d failed (total: %d)\n",
		summary.Passed, summary.Failed, summary.TotalChecks)
	fmt.Fprintf(v.out, "⏱️  Duration: %v\n", summary.Duration.Round(time.Millisecond))

	if summary.Failed > 0 {
		fmt.Fprintln(v.out)
		fmt.Fprintln(v.out, "❌ Failed Checks:")
		for _, result := range summary.Results {
			if result.Status == "FAIL" {
				fmt.Fprintf(v.out, "   • %s: %s\n", result.Component, result.Message)
				if result.Details != "" {
					fmt.Fprintf(v.out, "     Details: %s\n", result.Details)
				}
			}
		}

		fmt.Fprintln(v.out)
		fmt.Fprintln(v.out, "💡 Next Steps:")
		fmt.Fprintln(v.out, "   1. Fix the issues listed above")
		fmt.Fprintln(v.out, "   2. Run validation again: ssoctl setup validate")
	} else {
		fmt.Fprintln(v.out)
		fmt.Fprintln(v.out, "🎉 All checks passed! Your setup is ready.")
		fmt.Fprintln(v.out, "💡 Next Steps:")
		fmt.Fprintln(v.out, "   1. Sync sessions: ssoctl integration sync")
		fmt.Fprintln(v.out, "   2. Start server mode: ssoctl serve")
	}
}
