package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	coreauth "github.com/harsheyeditor/OneBlood/core/auth"
	"github.com/harsheyeditor/OneBlood/core/cluster"
)

// IntrospectionVerifier resolves inbound tokens through an OAuth2 token
// introspection endpoint (RFC 7662). Inactive tokens map to
// auth.ErrUnknownIdentity.
type IntrospectionVerifier struct {
	conf Conf
	cli  *http.Client
}

// NewIntrospectionVerifier creates a verifier for the configured endpoint.
func NewIntrospectionVerifier(conf Conf) (*IntrospectionVerifier, error) {
	if conf.IntrospectURL == "" {
		return nil, fmt.Errorf("introspect_url is required")
	}
	return &IntrospectionVerifier{
		conf: conf,
		cli:  &http.Client{Timeout: 5 * time.Second},
	}, nil
}

type introspectionResponse struct {
	Active   bool   `json:"active"`
	Subject  string `json:"sub"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

// Verify implements core auth.Verifier.
func (v *IntrospectionVerifier) Verify(ctx context.Context, token string) (coreauth.Actor, error) {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.conf.IntrospectURL, strings.NewReader(form.Encode()))
	if err != nil {
		return coreauth.Actor{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(v.conf.ClientID, v.conf.ClientSecret)

	resp, err := v.cli.Do(req)
	if err != nil {
		return coreauth.Actor{}, fmt.Errorf("introspect token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return coreauth.Actor{}, fmt.Errorf("introspect token: status %d", resp.StatusCode)
	}
	var ir introspectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return coreauth.Actor{}, fmt.Errorf("decode introspection response: %w", err)
	}
	if !ir.Active || ir.Subject == "" {
		return coreauth.Actor{}, coreauth.ErrUnknownIdentity
	}
	role := cluster.RoleDonor
	if ir.Role == string(cluster.RoleHospital) {
		role = cluster.RoleHospital
	}
	return coreauth.Actor{Identity: ir.Subject, Role: role, Verified: ir.Verified}, nil
}
