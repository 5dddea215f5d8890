package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-service/internal/api/session"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/service"
	"github.com/99minutos/auth-service/internal/infrastructure/security"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := domain.NormalizeEmail(user.Email)
	if _, ok := r.users[key]; ok {
		return nil, domain.ErrUserExists
	}
	created := *user
	created.ID = "user-" + strconv.Itoa(len(r.users)+1)
	r.users[key] = created
	return &created, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[domain.NormalizeEmail(email)]; ok {
		return &u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	User    *domain.UserInfo `json:"user"`
	Errors  []string         `json:"errors"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	issuer, err := security.NewJWTIssuer(security.TokenConfig{
		Key:      "router-test-signing-key",
		Issuer:   "auth-service",
		Audience: "auth-service-clients",
		TTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	svc := service.NewAuthService(
		&memUserRepo{users: make(map[string]domain.User)},
		security.NewBcryptHasher(bcrypt.MinCost),
		issuer,
		zerolog.Nop(),
	)

	e := NewRouter(Deps{
		AuthService: svc,
		Sessions:    session.NewCookies(session.Options{}),
		Log:         zerolog.Nop(),
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func call(t *testing.T, client *http.Client, method, url, body string) (int, envelope) {
	t.Helper()

	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, url, nil)
	} else {
		req, err = http.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: invalid json: %v", method, url, err)
	}
	return resp.StatusCode, env
}

const registration = `{"email":"a@b.com","password":"secret1","firstName":"A","lastName":"B","dateOfBirth":"2000-01-01"}`

func TestRouter_SessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	if _, env := call(t, client, http.MethodGet, srv.URL+"/api/auth/check", ""); env.Success {
		t.Fatalf("expected no session before login")
	}

	code, env := call(t, client, http.MethodPost, srv.URL+"/api/auth/register", registration)
	if code != http.StatusOK || !env.Success || env.User == nil || env.User.Email != "a@b.com" {
		t.Fatalf("register: %d %+v", code, env)
	}
	registeredID := env.User.ID

	code, env = call(t, client, http.MethodPost, srv.URL+"/api/auth/register", registration)
	if code != http.StatusBadRequest || env.Success || env.Message != "User already exists" {
		t.Fatalf("duplicate register: %d %+v", code, env)
	}

	code, env = call(t, client, http.MethodPost, srv.URL+"/api/auth/login", `{"email":"A@B.com","password":"secret1"}`)
	if code != http.StatusOK || !env.Success || env.User.ID != registeredID {
		t.Fatalf("login: %d %+v", code, env)
	}

	if _, env := call(t, client, http.MethodGet, srv.URL+"/api/auth/check", ""); !env.Success {
		t.Fatalf("expected session after login")
	}

	code, env = call(t, client, http.MethodGet, srv.URL+"/api/auth/me", "")
	if code != http.StatusOK || env.User == nil || env.User.ID != registeredID || env.User.DateOfBirth != "2000-01-01" {
		t.Fatalf("me: %d %+v", code, env)
	}

	code, env = call(t, client, http.MethodPost, srv.URL+"/api/auth/logout", "")
	if code != http.StatusOK || !env.Success {
		t.Fatalf("logout: %d %+v", code, env)
	}

	if _, env := call(t, client, http.MethodGet, srv.URL+"/api/auth/check", ""); env.Success {
		t.Fatalf("expected no session after logout")
	}

	code, env = call(t, client, http.MethodGet, srv.URL+"/api/auth/me", "")
	if code != http.StatusUnauthorized || env.Success || env.Message != "User not authenticated" {
		t.Fatalf("me after logout: %d %+v", code, env)
	}
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	if code, _ := call(t, client, http.MethodPost, srv.URL+"/api/auth/register", registration); code != http.StatusOK {
		t.Fatalf("register failed: %d", code)
	}

	wrongPassword := `{"email":"a@b.com","password":"not-the-password"}`
	unknownEmail := `{"email":"nobody@b.com","password":"not-the-password"}`

	code1, env1 := call(t, client, http.MethodPost, srv.URL+"/api/auth/login", wrongPassword)
	code2, env2 := call(t, client, http.MethodPost, srv.URL+"/api/auth/login", unknownEmail)

	if code1 != http.StatusUnauthorized || code2 != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", code1, code2)
	}
	if env1.Message != env2.Message || strings.Join(env1.Errors, ",") != strings.Join(env2.Errors, ",") {
		t.Fatalf("responses differ: %+v vs %+v", env1, env2)
	}
}

func TestRouter_BearerHeader(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	call(t, client, http.MethodPost, srv.URL+"/api/auth/register", registration)
	call(t, client, http.MethodPost, srv.URL+"/api/auth/login", `{"email":"a@b.com","password":"secret1"}`)

	u, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	var token string
	for _, c := range client.Jar.Cookies(u.URL) {
		if c.Name == session.CookieName {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatalf("no session cookie in jar")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", resp.StatusCode)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}
