package command

import (
	"context"

	"github.com/gobeyondidentity/ssoctl/internal/integration"
	"github.com/gobeyondidentity/ssoctl/internal/prompt"
)

// IntegrationDirectory looks up configured integrations
type IntegrationDirectory interface {
	GetIntegration(ctx context.Context, id string) (*integration.Integration, error)
	GetOnlineIntegrations(ctx context.Context) ([]*integration.Integration, error)
}

// Selector asks the user to pick one entry of a list
type Selector interface {
	Select(ctx context.Context, q prompt.ListQuestion) (prompt.Choice, error)
}

// SessionSynchronizer reconciles the sessions of one integration
type SessionSynchronizer interface {
	SyncSessions(ctx context.Context, integrationID string) (*integration.SessionDiff, error)
}

// Notifier tells other processes to refresh their session views
type Notifier interface {
	RefreshSessions(ctx context.Context) error
}

// Provider supplies the collaborators of the sync command
type Provider interface {
	IntegrationDirectory() IntegrationDirectory
	Selector() Selector
	SessionSynchronizer() SessionSynchronizer
	Notifier() Notifier
}
