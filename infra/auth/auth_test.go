package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	coreauth "github.com/harsheyeditor/OneBlood/core/auth"
	"github.com/harsheyeditor/OneBlood/core/cluster"
)

func newTokenServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
}

func TestClientCredCachesToken(t *testing.T) {
	calls := 0
	srv := newTokenServer(t, &calls)
	defer srv.Close()

	cc := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", AuthURL: srv.URL})
	tok, err := cc.GetToken()
	require.NoError(t, err)
	require.Equal(t, "test-token", tok)
	require.Equal(t, 1, calls)

	// A valid cached token is reused.
	_, err = cc.GetToken()
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// ForceRefresh always hits the endpoint.
	_, err = cc.ForceRefresh()
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestClientCredSetAuthHeader(t *testing.T) {
	calls := 0
	srv := newTokenServer(t, &calls)
	defer srv.Close()

	cc := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", AuthURL: srv.URL})
	req := httptest.NewRequest(http.MethodGet, "http://service/api", nil)
	require.NoError(t, cc.SetAuthHeader(req))
	require.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
}

func newIntrospectionServer(t *testing.T, responses map[string]introspectionResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.NoError(t, r.ParseForm())
		resp := responses[r.PostFormValue("token")]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestIntrospectionVerifier(t *testing.T) {
	srv := newIntrospectionServer(t, map[string]introspectionResponse{
		"tok-hosp": {Active: true, Subject: "hosp-1", Role: "hospital", Verified: true},
		"tok-don":  {Active: true, Subject: "don-1", Role: "donor"},
		"tok-dead": {Active: false},
	})
	defer srv.Close()

	v, err := NewIntrospectionVerifier(Conf{ClientID: "client", ClientSecret: "secret", IntrospectURL: srv.URL})
	require.NoError(t, err)

	a, err := v.Verify(context.Background(), "tok-hosp")
	require.NoError(t, err)
	require.Equal(t, coreauth.Actor{Identity: "hosp-1", Role: cluster.RoleHospital, Verified: true}, a)

	a, err = v.Verify(context.Background(), "tok-don")
	require.NoError(t, err)
	require.Equal(t, cluster.RoleDonor, a.Role)
	require.False(t, a.Verified)

	_, err = v.Verify(context.Background(), "tok-dead")
	require.ErrorIs(t, err, coreauth.ErrUnknownIdentity)

	// Unknown tokens introspect as inactive too.
	_, err = v.Verify(context.Background(), "tok-nope")
	require.ErrorIs(t, err, coreauth.ErrUnknownIdentity)
}

func TestIntrospectionVerifierErrors(t *testing.T) {
	_, err := NewIntrospectionVerifier(Conf{})
	require.Error(t, err)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	v, err := NewIntrospectionVerifier(Conf{ClientID: "client", ClientSecret: "secret", IntrospectURL: broken.URL})
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), "any")
	require.Error(t, err)
	require.NotErrorIs(t, err, coreauth.ErrUnknownIdentity)
}
