// Package auth provides the OAuth2-backed identity plumbing: a client
// credentials token source for outbound calls and a token introspection
// verifier for inbound actor events.
package auth

import "golang.org/x/oauth2/clientcredentials"

// Conf represents the configuration needed for authentication.
// It includes the client ID, client secret, the token URL and the
// introspection URL consulted to verify inbound tokens.
type Conf struct {
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	AuthURL       string `json:"auth_url"`
	IntrospectURL string `json:"introspect_url"`
}

func (c *Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.AuthURL,
	}
}
