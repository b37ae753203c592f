package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials/ssocreds"
	"github.com/aws/aws-sdk-go-v2/service/ssooidc"
	"github.com/aws/smithy-go/auth/bearer"
	"github.com/gobeyondidentity/ssoctl/internal/config"
	"github.com/sirupsen/logrus"
)

// TokenSource retrieves the cached SSO access token of one integration
type TokenSource interface {
	RetrieveBearerToken(ctx context.Context) (bearer.Token, error)
}

// TokenSourceFactory returns the token source for an integration
type TokenSourceFactory func(integration *Integration) (TokenSource, error)

// TokenStatus describes whether an integration has a usable SSO token
type TokenStatus struct {
	Online  bool
	Expires time.Time
	Err     error
}

// Directory serves the configured integrations
type Directory struct {
	integrations []*Integration
	tokens       TokenSourceFactory
	logger       *logrus.Logger
	now          func() time.Time
}

// NewDirectory creates a directory over the configured integrations
func NewDirectory(integrations []config.IntegrationConfig, tokens TokenSourceFactory, logger *logrus.Logger) *Directory {
	d := &Directory{
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
	for _, c := range integrations {
		d.integrations = append(d.integrations, FromConfig(c))
	}
	return d
}

// SSOTokenSources reads tokens from the standard AWS SSO cache
// (~/.aws/sso/cache), refreshing them through SSO OIDC when a refresh token is present.
func SSOTokenSources() TokenSourceFactory {
	return func(integration *Integration) (TokenSource, error) {
		cachePath, err := ssocreds.StandardCachedTokenFilepath(integration.SessionName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve token cache path: %w", err)
		}

		client := ssooidc.New(ssooidc.Options{Region: integration.Region})
		return ssocreds.NewSSOTokenProvider(client, cachePath), nil
	}
}

// GetIntegration returns the integration with the given id, or ErrNotFound
func (d *Directory) GetIntegration(ctx context.Context, id string) (*Integration, error) {
	for _, integration := range d.integrations {
		if integration.ID == id {
			return integration, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// GetIntegrations returns every configured integration in configuration order
func (d *Directory) GetIntegrations() []*Integration {
	return append([]*Integration(nil), d.integrations...)
}

// GetOnlineIntegrations returns the integrations holding a valid SSO token,
// keeping configuration order
func (d *Directory) GetOnlineIntegrations(ctx context.Context) ([]*Integration, error) {
	var online []*Integration
	for _, integration := range d.integrations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status := d.Status(ctx, integration)
		if status.Err != nil {
			d.logger.Debugf("Integration %s is offline: %v", integration.Alias, status.Err)
		}
		if status.Online {
			online = append(online, integration)
		}
	}
	return online, nil
}

// Status reports the token state of one integration
func (d *Directory) Status(ctx context.Context, integration *Integration) TokenStatus {
	source, err := d.tokens(integration)
	if err != nil {
		return TokenStatus{Err: err}
	}

	token, err := source.RetrieveBearerToken(ctx)
	if err != nil {
		return TokenStatus{Err: err}
	}

	if token.Value == "" {
		return TokenStatus{Err: fmt.Errorf("empty access token")}
	}

	if token.Expired(d.now()) {
		return TokenStatus{Expires: token.Expires, Err: fmt.Errorf("access token expired at %s", token.Expires.Format(time.RFC3339))}
	}

	return TokenStatus{Online: true, Expires: token.Expires}
}
