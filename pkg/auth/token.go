package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// RequestTimeout bounds every single API request.
const RequestTimeout = 30 * time.Second

// GetClient returns an *http.Client that authenticates every request with the
// given GitLab personal access token. GitLab accepts personal, project and
// group access tokens as OAuth2 bearer tokens, so the token is served by a
// static token source and never refreshed.
func GetClient(ctx context.Context, token string) (*http.Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("access token is empty")
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})

	client := oauth2.NewClient(ctx, src)
	client.Timeout = RequestTimeout
	return client, nil
}
