package server

import (
	"context"

	"github.com/gobeyondidentity/ssoctl/internal/command"
	"github.com/gobeyondidentity/ssoctl/internal/integration"
	"github.com/sirupsen/logrus"
)

// SyncRunner runs one sync invocation for an integration id
type SyncRunner interface {
	RunSync(ctx context.Context, integrationID string) (*integration.SessionDiff, error)
}

// IntegrationLister lists the integrations eligible for scheduled syncs
type IntegrationLister interface {
	GetOnlineIntegrations(ctx context.Context) ([]*integration.Integration, error)
}

// CommandRunner runs each sync through a fresh command.SyncCommand
type CommandRunner struct {
	provider command.Provider
	logger   *logrus.Logger
}

// NewCommandRunner creates a runner over the given collaborators
func NewCommandRunner(provider command.Provider, logger *logrus.Logger) *CommandRunner {
	return &CommandRunner{provider: provider, logger: logger}
}

// RunSync synchronizes one integration and returns its session diff
func (r *CommandRunner) RunSync(ctx context.Context, integrationID string) (*integration.SessionDiff, error) {
	cmd := command.NewSyncCommand(r.provider, r.logger)
	if err := cmd.Run(ctx, integrationID); err != nil {
		return nil, err
	}
	return cmd.Diff(), nil
}
