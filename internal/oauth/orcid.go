package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labmesh/labmesh-api/internal/config"
	"golang.org/x/oauth2"
)

// ORCIDProvider signs researchers in with their ORCID iD. The token response
// already carries the iD and display name; the public API supplies the email
// when the researcher has made one visible.
type ORCIDProvider struct {
	config *oauth2.Config
	apiURL string
}

func NewORCIDProvider(cfg config.OAuthConfig) *ORCIDProvider {
	return &ORCIDProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"/authenticate"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://orcid.org/oauth/authorize",
				TokenURL: "https://orcid.org/oauth/token",
			},
		},
		apiURL: "https://pub.orcid.org/v3.0",
	}
}

func (p *ORCIDProvider) Name() string {
	return "orcid"
}

func (p *ORCIDProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *ORCIDProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	orcidID, _ := token.Extra("orcid").(string)
	if orcidID == "" {
		return nil, fmt.Errorf("orcid token response missing orcid id")
	}
	name, _ := token.Extra("name").(string)
	if name == "" {
		name = orcidID
	}

	email, err := p.fetchPublicEmail(ctx, token, orcidID)
	if err != nil {
		return nil, err
	}
	if email == "" {
		// No public email on the record; fall back to a stable placeholder so
		// the (provider, provider_id) pair still maps to one account.
		email = orcidID + "@orcid.invalid"
	}

	return &UserInfo{
		Email:    email,
		Name:     name,
		ID:       orcidID,
		Provider: "orcid",
	}, nil
}

func (p *ORCIDProvider) fetchPublicEmail(ctx context.Context, token *oauth2.Token, orcidID string) (string, error) {
	client := p.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/email", p.apiURL, orcidID), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get orcid email record: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("orcid api returned status %d", resp.StatusCode)
	}

	var record struct {
		Email []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		} `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", fmt.Errorf("failed to decode email record: %w", err)
	}

	for _, e := range record.Email {
		if e.Primary {
			return e.Email, nil
		}
	}
	if len(record.Email) > 0 {
		return record.Email[0].Email, nil
	}
	return "", nil
}
