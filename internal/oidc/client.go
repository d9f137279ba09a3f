// Package oidc implements the relying-party side of the OpenID Connect
// authorization-code grant against a single configured identity provider:
// building the browser-facing authorization redirect, exchanging the
// authorization code for tokens and verifying the resulting ID token against
// the provider's published signing keys.
package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	gocache "github.com/patrickmn/go-cache"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/randsrc"
)

// Endpoints are the provider URLs the client talks to. The authorization
// endpoint is browser-facing and may live on a different host than the
// server-to-server endpoints when the provider sits behind a reverse proxy.
type Endpoints struct {
	Authorization string
	Token         string
	JWKS          string
	Discovery     string
}

// ExchangeResult is the transient outcome of one authorization-code exchange.
// It lives for the duration of a single callback request and is never persisted.
type ExchangeResult struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Identity is the decoded, signature- and nonce-checked payload of an ID token.
type Identity struct {
	Issuer        string    `json:"iss"`
	Subject       string    `json:"sub"`
	Audience      string    `json:"aud"`
	Expiry        time.Time `json:"exp"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	Name          string    `json:"name,omitempty"`
}

const (
	jwksCacheKey      = "jwks"
	discoveryCacheKey = "wkoc"

	defaultKeySetTTL = 5 * time.Minute
)

var supportedSigAlgs = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.PS256, jose.PS384, jose.PS512,
}

type Client struct {
	clientID     string
	clientSecret string
	issuer       string
	scopes       []string
	endpoints    Endpoints

	secureClient *http.Client
	cache        *gocache.Cache
}

func NewClient(clientID, clientSecret, issuer string, endpoints Endpoints, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		issuer:       issuer,
		scopes:       []string{"openid", "email", "profile"},
		endpoints:    endpoints,
		secureClient: httpClient,
		cache:        gocache.New(defaultKeySetTTL, 10*time.Minute),
	}
}

// AuthorizationURL builds the provider's authorization endpoint URL for one
// login attempt. It performs no network I/O.
func (c *Client) AuthorizationURL(nonce, state string, pkce randsrc.PKCE, redirectURI string) (string, error) {
	u, err := url.Parse(c.endpoints.Authorization)
	if err != nil {
		return "", fmt.Errorf("parsing authorization endpoint url: %w", err)
	}

	q := u.Query()
	q.Set("scope", strings.Join(c.scopes, " "))
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("nonce", nonce)
	q.Set("state", state)
	q.Set("code_challenge", pkce.Challenge)
	q.Set("code_challenge_method", pkce.Method)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ExchangeCode sends the authorization code to the token endpoint using the
// configured client credentials.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI, pkceVerifier string) (ExchangeResult, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("code_verifier", pkceVerifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.Token, strings.NewReader(data.Encode()))
	if err != nil {
		return ExchangeResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.secureClient.Do(req)
	if err != nil {
		return ExchangeResult{}, NewAuthError(ProviderUnreachable, fmt.Errorf("executing token request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ExchangeResult{}, NewAuthError(TokenExchangeFailed, fmt.Errorf("token exchange failed with status: %d", resp.StatusCode))
	}

	var tokens ExchangeResult
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return ExchangeResult{}, NewAuthError(TokenExchangeFailed, fmt.Errorf("decoding token response: %w", err))
	}

	if tokens.IDToken == "" {
		return ExchangeResult{}, NewAuthError(TokenExchangeFailed, fmt.Errorf("token response carries no id_token"))
	}

	return tokens, nil
}

// VerifyIDToken checks the token signature against the provider key set and
// validates issuer, audience, expiry and nonce. Each failure cause maps to a
// distinct AuthError kind.
func (c *Client) VerifyIDToken(ctx context.Context, idToken, expectedNonce string) (Identity, error) {
	token, err := jwt.ParseSigned(idToken, supportedSigAlgs)
	if err != nil {
		return Identity{}, NewAuthError(InvalidSignature, fmt.Errorf("parsing id token: %w", err))
	}

	keySet, err := c.keySet(ctx)
	if err != nil {
		return Identity{}, NewAuthError(ProviderUnreachable, fmt.Errorf("getting provider key set: %w", err))
	}

	var standardClaims jwt.Claims
	var customClaims struct {
		Nonce         string `json:"nonce"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := token.Claims(keySet, &standardClaims, &customClaims); err != nil {
		return Identity{}, NewAuthError(InvalidSignature, fmt.Errorf("getting JWT claims: %w", err))
	}

	if standardClaims.Issuer != c.issuer {
		return Identity{}, NewAuthError(IssuerMismatch, fmt.Errorf("token issued by %q, expected %q", standardClaims.Issuer, c.issuer))
	}

	if !audienceContains(standardClaims.Audience, c.clientID) {
		return Identity{}, NewAuthError(AudienceMismatch, fmt.Errorf("token audience %v does not include client id", standardClaims.Audience))
	}

	if standardClaims.Expiry == nil || time.Now().After(standardClaims.Expiry.Time()) {
		return Identity{}, NewAuthError(ExpiredToken, fmt.Errorf("token expired"))
	}

	if expectedNonce == "" || customClaims.Nonce != expectedNonce {
		return Identity{}, NewAuthError(NonceMismatch, fmt.Errorf("token nonce does not match the one issued for this login"))
	}

	return Identity{
		Issuer:        standardClaims.Issuer,
		Subject:       standardClaims.Subject,
		Audience:      c.clientID,
		Expiry:        standardClaims.Expiry.Time(),
		Email:         customClaims.Email,
		EmailVerified: customClaims.EmailVerified,
		Name:          customClaims.Name,
	}, nil
}

// Discover fetches the provider's well-known configuration. Used by the debug
// reachability endpoint; the flow itself runs on the configured endpoints.
func (c *Client) Discover(ctx context.Context) (Configuration, error) {
	if cached, ok := c.cache.Get(discoveryCacheKey); ok {
		//nolint:forcetypeassert
		return cached.(Configuration), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.Discovery, nil)
	if err != nil {
		return Configuration{}, fmt.Errorf("creating discovery request: %w", err)
	}

	resp, err := c.secureClient.Do(req)
	if err != nil {
		return Configuration{}, NewAuthError(ProviderUnreachable, fmt.Errorf("executing discovery request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Configuration{}, NewAuthError(ProviderUnreachable, fmt.Errorf("discovery endpoint returned status: %d", resp.StatusCode))
	}

	var conf Configuration
	if err := json.NewDecoder(resp.Body).Decode(&conf); err != nil {
		return Configuration{}, fmt.Errorf("decoding discovery document: %w", err)
	}

	c.cache.Set(discoveryCacheKey, conf, 0)

	return conf, nil
}

// ClientID is exposed for attribution and debug output.
func (c *Client) ClientID() string {
	return c.clientID
}

// keySet returns the provider's signing keys, fetching them from the JWKS
// endpoint and caching them with a TTL taken from the response cache
// directives.
func (c *Client) keySet(ctx context.Context) (*jose.JSONWebKeySet, error) {
	if cached, ok := c.cache.Get(jwksCacheKey); ok {
		//nolint:forcetypeassert
		return cached.(*jose.JSONWebKeySet), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.JWKS, nil)
	if err != nil {
		return nil, fmt.Errorf("creating a new HTTP request: %w", err)
	}

	resp, err := c.secureClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing an http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks endpoint returned status: %d", resp.StatusCode)
	}

	var keySet jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&keySet); err != nil {
		return nil, fmt.Errorf("decoding keyset response: %w", err)
	}

	ttl := keySetTTL(resp.Header)
	c.cache.Set(jwksCacheKey, &keySet, ttl)
	slogctx.Debug(ctx, "Refreshed provider key set", "keys", len(keySet.Keys), "ttl", ttl)

	return &keySet, nil
}

// keySetTTL honours the Cache-Control max-age of the JWKS response, falling
// back to a conservative default.
func keySetTTL(h http.Header) time.Duration {
	cc := h.Get("Cache-Control")
	for part := range strings.SplitSeq(cc, ",") {
		part = strings.TrimSpace(part)
		if rest, ok := strings.CutPrefix(part, "max-age="); ok {
			if secs, err := strconv.Atoi(rest); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}

	return defaultKeySetTTL
}

func audienceContains(aud jwt.Audience, clientID string) bool {
	for _, a := range aud {
		if a == clientID {
			return true
		}
	}

	return false
}
