// Package oauth runs the provider side of external logins: consent URL
// generation, code exchange and profile retrieval.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/eventa-io/eventa-server/internal/config"
	"github.com/eventa-io/eventa-server/internal/logger"
	"github.com/eventa-io/eventa-server/internal/model"
)

// ProviderGitHub and ProviderGoogle are the provider names accepted in
// login URLs.
const (
	ProviderGitHub = "github"
	ProviderGoogle = "google"
)

type provider struct {
	config   *oauth2.Config
	userInfo func(ctx context.Context, client *http.Client) (model.ExternalIdentity, error)
}

// Registry holds the configured OAuth providers.
type Registry struct {
	providers map[string]provider
	logger    *logger.Logger
}

// NewRegistry creates a registry for the providers configured in cfg.
// The callback URL for each provider is derived from the redirect base
// URL.
func NewRegistry(cfg config.OAuth, logger *logger.Logger) *Registry {
	callback := func(name string) string {
		return fmt.Sprintf("%s/api/v1/auth/%s/callback", cfg.RedirectBaseURL, name)
	}

	return &Registry{
		logger: logger,
		providers: map[string]provider{
			ProviderGitHub: {
				config: &oauth2.Config{
					ClientID:     cfg.GitHub.ClientID,
					ClientSecret: cfg.GitHub.ClientSecret,
					Endpoint:     github.Endpoint,
					RedirectURL:  callback(ProviderGitHub),
					Scopes:       []string{"read:user", "user:email"},
				},
				userInfo: githubUserInfo,
			},
			ProviderGoogle: {
				config: &oauth2.Config{
					ClientID:     cfg.Google.ClientID,
					ClientSecret: cfg.Google.ClientSecret,
					Endpoint:     google.Endpoint,
					RedirectURL:  callback(ProviderGoogle),
					Scopes: []string{
						"https://www.googleapis.com/auth/userinfo.email",
						"https://www.googleapis.com/auth/userinfo.profile",
					},
				},
				userInfo: googleUserInfo,
			},
		},
	}
}

// AuthCodeURL returns the provider's consent page URL carrying state.
// Unknown providers report model.ErrNotFound.
func (r *Registry) AuthCodeURL(providerName, state string) (string, error) {
	p, ok := r.providers[providerName]
	if !ok {
		return "", model.ErrNotFound
	}
	return p.config.AuthCodeURL(state), nil
}

// Exchange trades the authorization code for a provider token and
// fetches the profile behind it.
func (r *Registry) Exchange(ctx context.Context, providerName, code string) (model.ExternalIdentity, error) {
	p, ok := r.providers[providerName]
	if !ok {
		return model.ExternalIdentity{}, model.ErrNotFound
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("failed to exchange code: %w", err)
	}

	ext, err := p.userInfo(ctx, p.config.Client(ctx, token))
	if err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("failed to fetch user info: %w", err)
	}

	ext.Provider = providerName
	r.logger.Debug("OAuth registry: identity resolved",
		"provider", providerName,
		"provider_user_id", ext.ProviderUserID)

	return ext, nil
}

const (
	githubUserInfoURL = "https://api.github.com/user"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

func githubUserInfo(ctx context.Context, client *http.Client) (model.ExternalIdentity, error) {
	var payload struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Email string `json:"email"`
	}
	if err := fetchJSON(ctx, client, githubUserInfoURL, &payload); err != nil {
		return model.ExternalIdentity{}, err
	}

	return model.ExternalIdentity{
		ProviderUserID: strconv.FormatInt(payload.ID, 10),
		Nickname:       payload.Login,
		Email:          payload.Email,
	}, nil
}

func googleUserInfo(ctx context.Context, client *http.Client) (model.ExternalIdentity, error) {
	var payload struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := fetchJSON(ctx, client, googleUserInfoURL, &payload); err != nil {
		return model.ExternalIdentity{}, err
	}

	return model.ExternalIdentity{
		ProviderUserID: payload.ID,
		Nickname:       payload.Name,
		Email:          payload.Email,
	}, nil
}

func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
