package server_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasteboard/tasteboard/internal/authflow"
	"github.com/tasteboard/tasteboard/internal/business/server"
	"github.com/tasteboard/tasteboard/internal/config"
	"github.com/tasteboard/tasteboard/internal/content"
	contentmemory "github.com/tasteboard/tasteboard/internal/content/memory"
	"github.com/tasteboard/tasteboard/internal/middleware"
	"github.com/tasteboard/tasteboard/internal/oidc"
	"github.com/tasteboard/tasteboard/internal/recipes"
	"github.com/tasteboard/tasteboard/internal/session"
	sessionmock "github.com/tasteboard/tasteboard/internal/session/mock"
)

const (
	clientID    = "tasteboard"
	issuer      = "http://dex.example.com"
	frontendURL = "http://localhost:5173"
)

type fixture struct {
	router http.Handler

	providerSrv *httptest.Server
	recipesSrv  *httptest.Server

	recipesStatus int
	recipesBody   any
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{recipesStatus: http.StatusOK}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	repo := sessionmock.NewInMemRepository(nil, nil, nil, nil)
	manager, err := session.NewManager(repo, []byte("12345678901234567890123456789012"), time.Hour, config.CookieTemplate{
		Name:     "tb_session",
		Path:     "/",
		HTTPOnly: true,
		SameSite: config.CookieSameSiteLax,
	})
	require.NoError(t, err)

	// Identity provider: the token endpoint signs an ID token bound to the
	// pending nonce of the single session under test.
	mux := http.NewServeMux()
	mux.HandleFunc("/keys", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(jose.JSONWebKeySet{
			Keys: []jose.JSONWebKey{{Key: &key.PublicKey, KeyID: "k", Algorithm: "RS256", Use: "sig"}},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		var nonce string
		for _, s := range repo.Sessions {
			if s.Nonce != "" {
				nonce = s.Nonce
			}
		}

		signer, err := jose.NewSigner(
			jose.SigningKey{Algorithm: jose.RS256, Key: key},
			(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", "k"),
		)
		require.NoError(t, err)

		idToken, err := jwt.Signed(signer).
			Claims(jwt.Claims{
				Issuer:   issuer,
				Subject:  "user-1",
				Audience: jwt.Audience{clientID},
				Expiry:   jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}).
			Claims(map[string]any{"nonce": nonce, "email": "user@example.com", "email_verified": true}).
			Serialize()
		require.NoError(t, err)

		_ = json.NewEncoder(w).Encode(map[string]any{"id_token": idToken, "access_token": "at"})
	})
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(oidc.Configuration{Issuer: issuer})
	})

	f.providerSrv = httptest.NewServer(mux)
	t.Cleanup(f.providerSrv.Close)

	f.recipesSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if f.recipesStatus != http.StatusOK {
			w.WriteHeader(f.recipesStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(f.recipesBody)
	}))
	t.Cleanup(f.recipesSrv.Close)

	provider := oidc.NewClient(clientID, "secret", issuer, oidc.Endpoints{
		Authorization: f.providerSrv.URL + "/auth",
		Token:         f.providerSrv.URL + "/token",
		JWKS:          f.providerSrv.URL + "/keys",
		Discovery:     f.providerSrv.URL + "/.well-known/openid-configuration",
	}, nil)

	flow := authflow.NewController(provider, manager, "http://localhost:8000/authorize", frontendURL)
	contentSvc := content.NewService(contentmemory.NewRepository())
	recipesClient := recipes.NewClient(f.recipesSrv.URL, "the-key", time.Second)

	srv := server.NewServer(flow, contentSvc, recipesClient, 6)
	limiter := middleware.NewRateLimiter(1000, 1000)
	t.Cleanup(limiter.Close)

	f.router = srv.Router("tasteboard", frontendURL, limiter)

	return f
}

func (f *fixture) do(t *testing.T, method, target string, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("User-Agent", "test-browser")
	r.Header.Set("Accept", "application/json")
	for _, c := range cookies {
		r.AddCookie(c)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)

	return w
}

// login walks the full authorization-code flow and returns the session cookie.
func (f *fixture) login(t *testing.T) *http.Cookie {
	t.Helper()

	w := f.do(t, http.MethodGet, "/login", "", nil)
	require.Equal(t, http.StatusFound, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	w = f.do(t, http.MethodGet, "/authorize?code=the-code&state="+url.QueryEscape(state), "", []*http.Cookie{cookie})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, frontendURL, w.Header().Get("Location"))

	return cookie
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return body
}

func TestLoginFlow(t *testing.T) {
	// Each subtest gets its own fixture: the fake token endpoint signs for
	// the one pending nonce, so leftover login attempts must not accumulate.
	t.Run("Login redirects to the provider", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodGet, "/login", "", nil)
		require.Equal(t, http.StatusFound, w.Code)

		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/auth", loc.Path)

		q := loc.Query()
		assert.Equal(t, clientID, q.Get("client_id"))
		assert.NotEmpty(t, q.Get("nonce"))
		assert.NotEmpty(t, q.Get("state"))
		assert.NotEmpty(t, q.Get("code_challenge"))
	})

	t.Run("Full flow ends authenticated", func(t *testing.T) {
		f := newFixture(t)
		cookie := f.login(t)

		w := f.do(t, http.MethodGet, "/api/user/profile", "", []*http.Cookie{cookie})
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])

		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "user-1", user["sub"])
		assert.Equal(t, "user@example.com", user["email"])
	})

	t.Run("Callback with a wrong state fails generically", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodGet, "/login", "", nil)
		require.Equal(t, http.StatusFound, w.Code)
		cookie := w.Result().Cookies()[0]

		w = f.do(t, http.MethodGet, "/authorize?code=the-code&state=wrong", "", []*http.Cookie{cookie})
		require.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "error="+authflow.ErrorRedirectFlag)
	})

	t.Run("Callback without a cookie fails generically", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodGet, "/authorize?code=the-code&state=whatever", "", nil)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "error="+authflow.ErrorRedirectFlag)
	})

	t.Run("Logout clears the session", func(t *testing.T) {
		f := newFixture(t)
		cookie := f.login(t)

		w := f.do(t, http.MethodGet, "/logout", "", []*http.Cookie{cookie})
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, frontendURL, w.Header().Get("Location"))

		expired := w.Result().Cookies()
		require.Len(t, expired, 1)
		assert.Negative(t, expired[0].MaxAge)

		// The old cookie no longer grants anything.
		w = f.do(t, http.MethodGet, "/api/user/profile", "", []*http.Cookie{cookie})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestProtectedRoutes_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	targets := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/user/profile"},
		{http.MethodGet, "/api/user/favorites"},
		{http.MethodPost, "/api/user/favorites"},
		{http.MethodPost, "/api/recipes/7/comments"},
		{http.MethodPut, "/api/comments/abc"},
		{http.MethodDelete, "/api/comments/abc"},
		{http.MethodPost, "/api/recipes/7/reviews"},
		{http.MethodGet, "/api/user/reviews"},
	}

	for _, tt := range targets {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := f.do(t, tt.method, tt.target, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"success":false,"error":"Not logged in"}`, w.Body.String())
		})
	}
}

func TestCommentEndpoints(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	// Reads are public.
	w := f.do(t, http.MethodGet, "/api/recipes/7/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"comments":[]}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/recipes/7/comments", `{"content":"looks tasty"}`, []*http.Cookie{cookie})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	comment, ok := body["comment"].(map[string]any)
	require.True(t, ok)
	commentID, _ := comment["id"].(string)
	require.NotEmpty(t, commentID)
	assert.Equal(t, "user@example.com", comment["user_email"])

	w = f.do(t, http.MethodPost, "/api/recipes/7/comments", `{"content":"   "}`, []*http.Cookie{cookie})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/api/comments/"+commentID, `{"content":"edited"}`, []*http.Cookie{cookie})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPut, "/api/comments/no-such-comment", `{"content":"edited"}`, []*http.Cookie{cookie})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodDelete, "/api/comments/"+commentID, "", []*http.Cookie{cookie})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/recipes/7/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"comments":[]}`, w.Body.String())
}

func TestFavoriteEndpoints(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	w := f.do(t, http.MethodPost, "/api/user/favorites", `{"recipe_id":7,"title":"Tomato Soup","image":"soup.jpg"}`, []*http.Cookie{cookie})
	require.Equal(t, http.StatusCreated, w.Code)

	// Favoriting the same recipe again collapses into success.
	w = f.do(t, http.MethodPost, "/api/user/favorites", `{"recipe_id":7,"title":"Tomato Soup","image":"soup.jpg"}`, []*http.Cookie{cookie})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/user/favorites", `{"title":"no id"}`, []*http.Cookie{cookie})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/user/favorites", "", []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	favorites, ok := body["favorites"].([]any)
	require.True(t, ok)
	assert.Len(t, favorites, 1)

	w = f.do(t, http.MethodDelete, "/api/user/favorites/7", "", []*http.Cookie{cookie})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, "/api/user/favorites/7", "", []*http.Cookie{cookie})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewEndpoints(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	w := f.do(t, http.MethodPost, "/api/recipes/7/reviews", `{"rating":5,"content":"excellent"}`, []*http.Cookie{cookie})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/recipes/7/reviews", `{"rating":9,"content":"too good"}`, []*http.Cookie{cookie})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/recipes/7/reviews", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	reviews, ok := body["reviews"].([]any)
	require.True(t, ok)
	assert.Len(t, reviews, 1)

	w = f.do(t, http.MethodGet, "/api/user/reviews", "", []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRecipeEndpoints(t *testing.T) {
	f := newFixture(t)

	t.Run("Find requires ingredients", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/recipes", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Find returns normalized results", func(t *testing.T) {
		f.recipesBody = []map[string]any{{"id": 7, "title": "Tomato Soup"}}

		w := f.do(t, http.MethodGet, "/recipes?ingredients=tomato", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var results []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
		require.Len(t, results, 1)
		assert.Equal(t, "Tomato Soup", results[0]["title"])
	})

	t.Run("Upstream failure is a uniform 502", func(t *testing.T) {
		f.recipesStatus = http.StatusPaymentRequired
		defer func() { f.recipesStatus = http.StatusOK }()

		w := f.do(t, http.MethodGet, "/api/recipes/search?query=pasta", "", nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Recipe search is currently unavailable"}`, w.Body.String())
	})

	t.Run("Taxonomies", func(t *testing.T) {
		for _, target := range []string{
			"/api/cuisines",
			"/api/diets",
			"/api/intolerances",
			"/api/meal-types",
		} {
			w := f.do(t, http.MethodGet, target, "", nil)
			require.Equal(t, http.StatusOK, w.Code)

			var items []string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
			assert.NotEmpty(t, items)
		}
	})
}

func TestDebugEndpoints(t *testing.T) {
	f := newFixture(t)

	t.Run("Health", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, true, body["spoonacular_api_key"])
	})

	t.Run("Auth state for anonymous caller", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/debug/auth", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Nil(t, body["current_user"])
		assert.Equal(t, clientID, body["dex_client_id"])
	})

	t.Run("Auth state for authenticated caller", func(t *testing.T) {
		cookie := f.login(t)

		w := f.do(t, http.MethodGet, "/debug/auth", "", []*http.Cookie{cookie})
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		user, ok := body["current_user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "user-1", user["sub"])
	})

	t.Run("Provider reachability", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/debug/dex", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, true, body["dex_reachable"])
		assert.Equal(t, issuer, body["issuer"])
	})
}
