package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// ConnectorConfig configures the hosted-auth flow.
type ConnectorConfig struct {
	BaseURL     string
	ClientID    string
	APIKey      string
	RedirectURI string
}

// HostedAuth implements Connector with the provider's OAuth 2.0 endpoints.
// The API key doubles as the client secret.
type HostedAuth struct {
	config *oauth2.Config
}

// NewHostedAuth creates a HostedAuth connector.
func NewHostedAuth(cfg ConnectorConfig) *HostedAuth {
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &HostedAuth{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.APIKey,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/v3/connect/auth",
				TokenURL:  base + "/v3/connect/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// AuthURL returns the URL the user is redirected to for consent.
func (h *HostedAuth) AuthURL(state string) string {
	return h.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a grant.
func (h *HostedAuth) Exchange(ctx context.Context, code string) (*Grant, error) {
	token, err := h.config.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, &Error{
				Kind:    kindForStatus(re.Response.StatusCode),
				Status:  re.Response.StatusCode,
				Message: "code exchange rejected",
				Err:     err,
			}
		}
		return nil, &Error{Kind: KindUnavailable, Message: "code exchange failed", Err: err}
	}

	grant := &Grant{
		GrantID:  extraString(token, "grant_id"),
		Email:    extraString(token, "email"),
		Provider: extraString(token, "provider"),
	}
	if grant.GrantID == "" {
		return nil, &Error{Kind: KindServer, Message: "token response missing grant_id"}
	}
	if grant.Email == "" {
		return nil, &Error{Kind: KindServer, Message: fmt.Sprintf("grant %s has no email", grant.GrantID)}
	}
	return grant, nil
}

func extraString(token *oauth2.Token, key string) string {
	v, _ := token.Extra(key).(string)
	return v
}
