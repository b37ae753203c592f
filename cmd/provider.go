package main

import (
	"context"
	"errors"
	"time"

	"github.com/gobeyondidentity/ssoctl/internal/command"
	"github.com/gobeyondidentity/ssoctl/internal/config"
	"github.com/gobeyondidentity/ssoctl/internal/integration"
	"github.com/gobeyondidentity/ssoctl/internal/prompt"
	"github.com/gobeyondidentity/ssoctl/internal/rpc"
	"github.com/sirupsen/logrus"
)

var errNoTerminal = errors.New("interactive selection is not available in server mode")

// provider wires the sync command to the configured directory and session daemon
type provider struct {
	directory *integration.Directory
	selector  command.Selector
	daemon    *rpc.Client
}

func newProvider(cfg *config.Config, selector command.Selector, log *logrus.Logger) *provider {
	timeout := time.Duration(cfg.Daemon.TimeoutSeconds) * time.Second
	return &provider{
		directory: integration.NewDirectory(cfg.Integrations, integration.SSOTokenSources(), log),
		selector:  selector,
		daemon:    rpc.NewClient(cfg.Daemon.URL, cfg.Daemon.Token, timeout),
	}
}

func (p *provider) IntegrationDirectory() command.IntegrationDirectory { return p.directory }
func (p *provider) Selector() command.Selector                         { return p.selector }
func (p *provider) SessionSynchronizer() command.SessionSynchronizer   { return p.daemon }
func (p *provider) Notifier() command.Notifier                         { return p.daemon }

// headlessSelector refuses to prompt; server mode always syncs by id
type headlessSelector struct{}

func (headlessSelector) Select(ctx context.Context, q prompt.ListQuestion) (prompt.Choice, error) {
	return prompt.Choice{}, errNoTerminal
}
