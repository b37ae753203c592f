package wizard

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobeyondidentity/ssoctl/internal/config"
	"github.com/google/uuid"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorTeal  = "\033[36m"
	colorRed   = "\033[31m"
)

// Wizard walks the user through adding an integration to the config file
type Wizard struct {
	reader     *bufio.Reader
	out        io.Writer
	config     *config.Config
	configPath string
	newID      func() string
	inputErr   error
}

// NewWizard creates a wizard that appends to the config file at configPath
func NewWizard(configPath string) *Wizard {
	return &Wizard{
		reader:     bufio.NewReaderSize(os.Stdin, 4096),
		out:        os.Stdout,
		configPath: configPath,
		newID:      uuid.NewString,
	}
}

// Run prompts for the integration settings and saves the updated configuration.
// It returns the created integration.
func (w *Wizard) Run() (*config.IntegrationConfig, error) {
	if err := w.loadConfiguration(); err != nil {
		return nil, err
	}

	fmt.Fprintf(w.out, "%sNew AWS SSO Integration%s\n", colorTeal, colorReset)
	fmt.Fprintln(w.out, "═══════════════════════")

	integration := w.configureIntegration()
	if w.inputErr != nil && (integration.Alias == "" || integration.PortalURL == "") {
		return nil, fmt.Errorf("failed to read input: %w", w.inputErr)
	}

	if err := w.config.AddIntegration(integration); err != nil {
		return nil, fmt.Errorf("failed to add integration: %w", err)
	}

	w.config.SetDefaults()
	if err := w.config.ValidateWithOptions(config.ValidateOptions{AllowNoIntegrations: true}); err != nil {
		fmt.Fprintf(w.out, "%sConfiguration validation failed: %v%s\n", colorRed, err, colorReset)
		return nil, err
	}

	if err := w.saveConfiguration(); err != nil {
		return nil, err
	}

	created := w.config.Integrations[len(w.config.Integrations)-1]
	w.showNextSteps(created)
	return &created, nil
}

// loadConfiguration reads the existing config file, or starts from an empty one
func (w *Wizard) loadConfiguration() error {
	cfg, err := config.Load(w.configPath)
	switch {
	case err == nil:
		w.config = cfg
	case errors.Is(err, os.ErrNotExist):
		w.config = &config.Config{}
	default:
		return fmt.Errorf("failed to load existing configuration: %w", err)
	}
	return nil
}

func (w *Wizard) configureIntegration() config.IntegrationConfig {
	integration := config.IntegrationConfig{ID: w.newID()}

	for {
		integration.Alias = w.promptRequired("Alias (e.g. acme-prod)")
		if w.inputErr != nil || !w.aliasTaken(integration.Alias) {
			break
		}
		fmt.Fprintf(w.out, "%sAlias %q is already used by another integration%s\n", colorRed, integration.Alias, colorReset)
	}

	for {
		integration.PortalURL = w.promptRequired("AWS access portal URL (e.g. https://acme.awsapps.com/start)")
		if w.inputErr != nil {
			return integration
		}
		if strings.HasPrefix(integration.PortalURL, "https://") || strings.HasPrefix(integration.PortalURL, "http://") {
			break
		}
		fmt.Fprintf(w.out, "%sPlease enter an http(s) URL%s\n", colorRed, colorReset)
	}

	integration.Region = w.promptWithDefault("SSO region", "us-east-1")
	integration.BrowserOpening = w.promptChoice("Browser opening",
		[]string{config.BrowserOpeningInApp, config.BrowserOpeningExternal}, config.BrowserOpeningInApp)
	integration.SessionName = w.promptWithDefault("SSO session name", integration.PortalURL)

	fmt.Fprintln(w.out)
	return integration
}

func (w *Wizard) aliasTaken(alias string) bool {
	for _, existing := range w.config.Integrations {
		if existing.Alias == alias {
			return true
		}
	}
	return false
}

// saveConfiguration writes the configuration back to the config path
func (w *Wizard) saveConfiguration() error {
	dir := filepath.Dir(w.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := config.Save(w.config, w.configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(w.out, "Configuration saved to: %s\n", w.configPath)
	return nil
}

func (w *Wizard) showNextSteps(integration config.IntegrationConfig) {
	fmt.Fprintln(w.out)
	fmt.Fprintf(w.out, "%sIntegration %s created%s\n", colorTeal, integration.Alias, colorReset)
	fmt.Fprintf(w.out, "   ID: %s\n", integration.ID)
	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Next steps:")
	fmt.Fprintf(w.out, "1. Sign in:        aws sso login --sso-session %s\n", integration.SessionName)
	fmt.Fprintf(w.out, "2. Sync sessions:  ssoctl integration sync --integrationId %s\n", integration.ID)
}

// Helper methods for prompting user input

func (w *Wizard) prompt(question string) string {
	fmt.Fprintf(w.out, "%s: ", question)
	input, err := w.reader.ReadString('\n')
	if err != nil && input == "" {
		w.inputErr = err
		return ""
	}
	return strings.TrimSpace(input)
}

func (w *Wizard) promptRequired(question string) string {
	for {
		value := w.prompt(question)
		if value != "" || w.inputErr != nil {
			return value
		}
		fmt.Fprintf(w.out, "%sThis field is required%s\n", colorRed, colorReset)
	}
}

func (w *Wizard) promptWithDefault(question, defaultValue string) string {
	value := w.prompt(fmt.Sprintf("%s [%s]", question, defaultValue))
	if value == "" {
		return defaultValue
	}
	return value
}

func (w *Wizard) promptChoice(question string, options []string, defaultValue string) string {
	for {
		response := w.prompt(fmt.Sprintf("%s (%s) [%s]", question, strings.Join(options, "/"), defaultValue))
		if response == "" || w.inputErr != nil {
			return defaultValue
		}

		for _, option := range options {
			if strings.EqualFold(response, option) {
				return option
			}
		}

		fmt.Fprintf(w.out, "%sPlease enter one of: %s%s\n", colorRed, strings.Join(options, ", "), colorReset)
	}
}
