// Package integration models AWS SSO integrations and resolves which of
// them are currently online.
package integration

import (
	"errors"

	"github.com/gobeyondidentity/ssoctl/internal/config"
)

// ErrNotFound is returned when no integration matches a lookup
var ErrNotFound = errors.New("integration not found")

// Integration identifies one AWS SSO portal configured for the user
type Integration struct {
	ID             string `json:"id"`
	Alias          string `json:"alias"`
	PortalURL      string `json:"portalUrl"`
	Region         string `json:"region"`
	BrowserOpening string `json:"browserOpening"`
	SessionName    string `json:"sessionName"`
}

// SessionDiff is the outcome of reconciling local sessions against the portal
type SessionDiff struct {
	SessionsToAdd    []string `json:"sessionsToAdd"`
	SessionsToDelete []string `json:"sessionsToDelete"`
}

// FromConfig builds an Integration from its configuration entry
func FromConfig(c config.IntegrationConfig) *Integration {
	c.SetDefaults()
	return &Integration{
		ID:             c.ID,
		Alias:          c.Alias,
		PortalURL:      c.PortalURL,
		Region:         c.Region,
		BrowserOpening: c.BrowserOpening,
		SessionName:    c.SessionName,
	}
}
