package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TvixT/simple-mart/internal/auth"
	"github.com/TvixT/simple-mart/internal/user"
)

type fakeUserRepo struct {
	users map[string]user.User // keyed by email
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]user.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	if _, exists := f.users[u.Email]; exists {
		return user.ErrEmailTaken
	}
	f.users[u.Email] = *u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := f.users[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func newAuthHandler(repo user.Repository) *AuthHandler {
	tokens := auth.NewTokenMaker("test-secret", time.Hour)
	hasher := auth.NewPasswordHasher(4)
	return NewAuthHandler(user.NewService(repo, hasher, tokens), zap.NewNop())
}

func TestRegisterHandler(t *testing.T) {
	h := newAuthHandler(newFakeUserRepo())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"Alice","email":"alice@example.com","password":"secret123"}`))
	h.Register(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	env := decodeEnvelope(t, rr)
	require.True(t, env.Success)

	data := env.Data.(map[string]any)
	require.NotEmpty(t, data["token"])

	u := data["user"].(map[string]any)
	require.Equal(t, "customer", u["role"])
	require.NotContains(t, u, "passwordHash")
}

func TestRegisterHandler_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing name", `{"email":"a@b.com","password":"secret123"}`},
		{"bad email", `{"name":"Alice","email":"not-an-email","password":"secret123"}`},
		{"short password", `{"name":"Alice","email":"a@b.com","password":"123"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newAuthHandler(newFakeUserRepo())
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tc.body))
			h.Register(rr, req)
			require.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	h := newAuthHandler(repo)

	body := `{"name":"Alice","email":"alice@example.com","password":"secret123"}`

	rr := httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestLoginHandler(t *testing.T) {
	repo := newFakeUserRepo()
	h := newAuthHandler(repo)

	rr := httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"Alice","email":"alice@example.com","password":"secret123"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"secret123"}`)))

	require.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	data := env.Data.(map[string]any)
	require.NotEmpty(t, data["token"])
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	h := newAuthHandler(repo)

	rr := httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"Alice","email":"alice@example.com","password":"secret123"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"wrong"}`)))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProfileHandler(t *testing.T) {
	repo := newFakeUserRepo()
	h := newAuthHandler(repo)

	rr := httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"Alice","email":"alice@example.com","password":"secret123"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	registered := repo.users["alice@example.com"]

	req := authedRequest(http.MethodGet, "/api/auth/profile", "",
		auth.Principal{ID: registered.ID, Role: registered.Role})
	rr = httptest.NewRecorder()
	h.Profile(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}
