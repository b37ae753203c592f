// Package command implements the integration sync command: resolve one
// integration, reconcile its sessions, report the diff and notify the daemon.
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/gobeyondidentity/ssoctl/internal/integration"
	"github.com/gobeyondidentity/ssoctl/internal/prompt"
	"github.com/sirupsen/logrus"
)

// ErrNoOnlineIntegrations is returned when interactive selection has nothing to offer
var ErrNoOnlineIntegrations = errors.New("no online integrations available")

// Prompt identifiers for the integration question
const (
	SelectQuestionName    = "selectedIntegration"
	SelectQuestionMessage = "select an integration"
)

// State is the progress of one sync invocation
type State string

const (
	StateStart     State = "start"
	StateResolving State = "resolving"
	StateResolved  State = "resolved"
	StateSyncing   State = "syncing"
	StateNotifying State = "notifying"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// SyncCommand synchronizes the sessions of a single integration.
// A SyncCommand serves one invocation; create a new one per run.
type SyncCommand struct {
	provider Provider
	logger   *logrus.Logger
	state    State
	diff     *integration.SessionDiff
}

// NewSyncCommand creates a sync command over the given collaborators
func NewSyncCommand(provider Provider, logger *logrus.Logger) *SyncCommand {
	return &SyncCommand{
		provider: provider,
		logger:   logger,
		state:    StateStart,
	}
}

// State returns the state reached by the last invocation
func (c *SyncCommand) State() State {
	return c.state
}

// Diff returns the session diff of the last successful reconciliation, or nil
func (c *SyncCommand) Diff() *integration.SessionDiff {
	return c.diff
}

func (c *SyncCommand) transition(next State) {
	c.logger.Debugf("sync command: %s -> %s", c.state, next)
	c.state = next
}

// Run resolves the integration (interactively when integrationID is empty)
// and synchronizes it. Every failure, panics included, is returned as *Error.
func (c *SyncCommand) Run(ctx context.Context, integrationID string) (err error) {
	c.state = StateStart
	c.diff = nil

	defer func() {
		if r := recover(); r != nil {
			err = Normalize(r)
		}
		if err != nil {
			c.transition(StateFailed)
		}
	}()

	c.transition(StateResolving)
	target, err := c.resolve(ctx, integrationID)
	if err != nil {
		return Normalize(err)
	}
	c.transition(StateResolved)

	if err := c.Sync(ctx, target); err != nil {
		return Normalize(err)
	}

	c.transition(StateDone)
	return nil
}

// resolve looks the integration up by id, or asks the user when no id is given
func (c *SyncCommand) resolve(ctx context.Context, integrationID string) (*integration.Integration, error) {
	if integrationID == "" {
		return c.SelectIntegration(ctx)
	}

	found, err := c.provider.IntegrationDirectory().GetIntegration(ctx, integrationID)
	if errors.Is(err, integration.ErrNotFound) || (err == nil && found == nil) {
		if err == nil {
			err = integration.ErrNotFound
		}
		return nil, &Error{
			Kind:    KindNotFound,
			Message: fmt.Sprintf("integration %q not found", integrationID),
			Err:     err,
		}
	}
	if err != nil {
		return nil, err
	}

	return found, nil
}

// SelectIntegration asks the user to choose one of the online integrations
func (c *SyncCommand) SelectIntegration(ctx context.Context) (*integration.Integration, error) {
	online, err := c.provider.IntegrationDirectory().GetOnlineIntegrations(ctx)
	if err != nil {
		return nil, err
	}

	if len(online) == 0 {
		return nil, &Error{
			Kind:    KindSelection,
			Message: ErrNoOnlineIntegrations.Error(),
			Err:     ErrNoOnlineIntegrations,
		}
	}

	choices := make([]prompt.Choice, len(online))
	for i, candidate := range online {
		choices[i] = prompt.Choice{Name: candidate.Alias, Value: candidate}
	}

	choice, err := c.provider.Selector().Select(ctx, prompt.ListQuestion{
		Name:    SelectQuestionName,
		Message: SelectQuestionMessage,
		Choices: choices,
	})
	if err != nil {
		return nil, err
	}

	selected, ok := choice.Value.(*integration.Integration)
	if !ok || selected == nil {
		return nil, fmt.Errorf("selector returned %T, expected an integration", choice.Value)
	}

	return selected, nil
}

// Sync reconciles the sessions of target, logs the diff and notifies the daemon.
// Collaborator errors are returned unchanged.
func (c *SyncCommand) Sync(ctx context.Context, target *integration.Integration) error {
	c.transition(StateSyncing)

	diff, err := c.provider.SessionSynchronizer().SyncSessions(ctx, target.ID)
	if err != nil {
		return err
	}
	if diff == nil {
		diff = &integration.SessionDiff{}
	}
	c.diff = diff

	c.logger.Infof("%d sessions added", len(diff.SessionsToAdd))
	c.logger.Infof("%d sessions removed", len(diff.SessionsToDelete))

	c.transition(StateNotifying)
	return c.provider.Notifier().RefreshSessions(ctx)
}
