package oidc_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasteboard/tasteboard/internal/oidc"
	"github.com/tasteboard/tasteboard/internal/randsrc"
)

const (
	testClientID     = "tasteboard"
	testClientSecret = "secret"
	testIssuer       = "http://dex.example.com"
	testRedirectURI  = "http://localhost:8000/authorize"
	testNonce        = "nonce-value"
)

// provider is a fake identity provider serving a real JWKS and token endpoint.
type provider struct {
	key    *rsa.PrivateKey
	srv    *httptest.Server
	client *oidc.Client

	jwksHits      atomic.Int64
	discoveryHits atomic.Int64

	tokenStatus   int
	tokenResponse map[string]any
	gotTokenForm  url.Values
}

func newProvider(t *testing.T) *provider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &provider{key: key, tokenStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/keys", func(w http.ResponseWriter, _ *http.Request) {
		p.jwksHits.Add(1)
		w.Header().Set("Cache-Control", "max-age=600")
		_ = json.NewEncoder(w).Encode(jose.JSONWebKeySet{
			Keys: []jose.JSONWebKey{{
				Key:       &key.PublicKey,
				KeyID:     "test-key",
				Algorithm: string(jose.RS256),
				Use:       "sig",
			}},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		p.gotTokenForm = r.PostForm

		if p.tokenStatus != http.StatusOK {
			w.WriteHeader(p.tokenStatus)
			return
		}

		_ = json.NewEncoder(w).Encode(p.tokenResponse)
	})
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		p.discoveryHits.Add(1)
		_ = json.NewEncoder(w).Encode(oidc.Configuration{
			Issuer:        testIssuer,
			TokenEndpoint: p.srv.URL + "/token",
			JwksURI:       p.srv.URL + "/keys",
		})
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)

	p.client = oidc.NewClient(testClientID, testClientSecret, testIssuer, oidc.Endpoints{
		Authorization: p.srv.URL + "/auth",
		Token:         p.srv.URL + "/token",
		JWKS:          p.srv.URL + "/keys",
		Discovery:     p.srv.URL + "/.well-known/openid-configuration",
	}, nil)

	return p
}

type tokenClaims struct {
	standard jwt.Claims
	custom   map[string]any
}

func defaultClaims() tokenClaims {
	return tokenClaims{
		standard: jwt.Claims{
			Issuer:   testIssuer,
			Subject:  "user-1",
			Audience: jwt.Audience{testClientID},
			Expiry:   jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		custom: map[string]any{
			"nonce":          testNonce,
			"email":          "user@example.com",
			"email_verified": true,
			"name":           "User One",
		},
	}
}

func (p *provider) signIDToken(t *testing.T, claims tokenClaims) string {
	t.Helper()

	return signWith(t, p.key, claims)
}

func signWith(t *testing.T, key *rsa.PrivateKey, claims tokenClaims) string {
	t.Helper()

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", "test-key"),
	)
	require.NoError(t, err)

	raw, err := jwt.Signed(signer).Claims(claims.standard).Claims(claims.custom).Serialize()
	require.NoError(t, err)

	return raw
}

func TestClient_AuthorizationURL(t *testing.T) {
	p := newProvider(t)
	pkce := randsrc.Source{}.PKCE()

	rawURL, err := p.client.AuthorizationURL(testNonce, "state-value", pkce, testRedirectURI)
	require.NoError(t, err)

	u, err := url.Parse(rawURL)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, testClientID, q.Get("client_id"))
	assert.Equal(t, testRedirectURI, q.Get("redirect_uri"))
	assert.Equal(t, testNonce, q.Get("nonce"))
	assert.Equal(t, "state-value", q.Get("state"))
	assert.Equal(t, pkce.Challenge, q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
}

func TestClient_ExchangeCode(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		p := newProvider(t)
		p.tokenResponse = map[string]any{
			"access_token": "at",
			"id_token":     "idt",
			"token_type":   "bearer",
			"expires_in":   3600,
		}

		tokens, err := p.client.ExchangeCode(t.Context(), "the-code", testRedirectURI, "the-verifier")
		require.NoError(t, err)
		assert.Equal(t, "idt", tokens.IDToken)
		assert.Equal(t, "at", tokens.AccessToken)

		form := p.gotTokenForm
		assert.Equal(t, "authorization_code", form.Get("grant_type"))
		assert.Equal(t, "the-code", form.Get("code"))
		assert.Equal(t, testClientID, form.Get("client_id"))
		assert.Equal(t, testClientSecret, form.Get("client_secret"))
		assert.Equal(t, "the-verifier", form.Get("code_verifier"))
		assert.Equal(t, testRedirectURI, form.Get("redirect_uri"))
	})

	t.Run("Provider rejects the code", func(t *testing.T) {
		p := newProvider(t)
		p.tokenStatus = http.StatusBadRequest

		_, err := p.client.ExchangeCode(t.Context(), "bad-code", testRedirectURI, "v")
		assert.Equal(t, oidc.TokenExchangeFailed, oidc.KindOf(err))
	})

	t.Run("No id_token in response", func(t *testing.T) {
		p := newProvider(t)
		p.tokenResponse = map[string]any{"access_token": "at"}

		_, err := p.client.ExchangeCode(t.Context(), "the-code", testRedirectURI, "v")
		assert.Equal(t, oidc.TokenExchangeFailed, oidc.KindOf(err))
	})

	t.Run("Provider unreachable", func(t *testing.T) {
		p := newProvider(t)
		p.srv.Close()

		_, err := p.client.ExchangeCode(t.Context(), "the-code", testRedirectURI, "v")
		assert.Equal(t, oidc.ProviderUnreachable, oidc.KindOf(err))
	})
}

func TestClient_VerifyIDToken(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		p := newProvider(t)

		identity, err := p.client.VerifyIDToken(t.Context(), p.signIDToken(t, defaultClaims()), testNonce)
		require.NoError(t, err)

		assert.Equal(t, "user-1", identity.Subject)
		assert.Equal(t, testIssuer, identity.Issuer)
		assert.Equal(t, testClientID, identity.Audience)
		assert.Equal(t, "user@example.com", identity.Email)
		assert.True(t, identity.EmailVerified)
		assert.Equal(t, "User One", identity.Name)
	})

	tests := []struct {
		name     string
		claims   func() tokenClaims
		nonce    string
		wantKind oidc.ErrorKind
	}{
		{
			name:     "Nonce mismatch",
			claims:   defaultClaims,
			nonce:    "different-nonce",
			wantKind: oidc.NonceMismatch,
		},
		{
			name: "Token without nonce",
			claims: func() tokenClaims {
				c := defaultClaims()
				delete(c.custom, "nonce")
				return c
			},
			nonce:    testNonce,
			wantKind: oidc.NonceMismatch,
		},
		{
			name:     "No nonce expected",
			claims:   defaultClaims,
			nonce:    "",
			wantKind: oidc.NonceMismatch,
		},
		{
			name: "Expired token",
			claims: func() tokenClaims {
				c := defaultClaims()
				c.standard.Expiry = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return c
			},
			nonce:    testNonce,
			wantKind: oidc.ExpiredToken,
		},
		{
			name: "Issuer mismatch",
			claims: func() tokenClaims {
				c := defaultClaims()
				c.standard.Issuer = "http://evil.example.com"
				return c
			},
			nonce:    testNonce,
			wantKind: oidc.IssuerMismatch,
		},
		{
			name: "Audience mismatch",
			claims: func() tokenClaims {
				c := defaultClaims()
				c.standard.Audience = jwt.Audience{"another-client"}
				return c
			},
			nonce:    testNonce,
			wantKind: oidc.AudienceMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(t)

			_, err := p.client.VerifyIDToken(t.Context(), p.signIDToken(t, tt.claims()), tt.nonce)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, oidc.KindOf(err))
		})
	}

	t.Run("Signed with a foreign key", func(t *testing.T) {
		p := newProvider(t)

		foreignKey, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		_, err = p.client.VerifyIDToken(t.Context(), signWith(t, foreignKey, defaultClaims()), testNonce)
		assert.Equal(t, oidc.InvalidSignature, oidc.KindOf(err))
	})

	t.Run("Not a token at all", func(t *testing.T) {
		p := newProvider(t)

		_, err := p.client.VerifyIDToken(t.Context(), "garbage", testNonce)
		assert.Equal(t, oidc.InvalidSignature, oidc.KindOf(err))
	})

	t.Run("JWKS unreachable", func(t *testing.T) {
		p := newProvider(t)
		token := p.signIDToken(t, defaultClaims())
		p.srv.Close()

		_, err := p.client.VerifyIDToken(t.Context(), token, testNonce)
		assert.Equal(t, oidc.ProviderUnreachable, oidc.KindOf(err))
	})

	t.Run("Key set is cached between verifications", func(t *testing.T) {
		p := newProvider(t)

		_, err := p.client.VerifyIDToken(t.Context(), p.signIDToken(t, defaultClaims()), testNonce)
		require.NoError(t, err)
		_, err = p.client.VerifyIDToken(t.Context(), p.signIDToken(t, defaultClaims()), testNonce)
		require.NoError(t, err)

		assert.Equal(t, int64(1), p.jwksHits.Load())
	})
}

func TestClient_Discover(t *testing.T) {
	p := newProvider(t)

	conf, err := p.client.Discover(t.Context())
	require.NoError(t, err)
	assert.Equal(t, testIssuer, conf.Issuer)

	// Second call is served from the cache.
	_, err = p.client.Discover(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.discoveryHits.Load())

	t.Run("Unreachable", func(t *testing.T) {
		p := newProvider(t)
		p.srv.Close()

		_, err := p.client.Discover(t.Context())
		assert.Equal(t, oidc.ProviderUnreachable, oidc.KindOf(err))
	})
}
