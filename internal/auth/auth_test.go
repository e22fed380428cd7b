package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- fake user repository ---

type fakeUser struct {
	id    int
	email string
	hash  string
}

type fakeUsers struct {
	users     map[string]fakeUser
	getErr    error
	createErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]fakeUser{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, login, email, hash string) (int, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	if _, ok := f.users[login]; ok {
		return 0, ErrUserExists
	}
	id := len(f.users) + 1
	f.users[login] = fakeUser{id: id, email: email, hash: hash}
	return id, nil
}

func (f *fakeUsers) GetByLogin(_ context.Context, login string) (int, string, error) {
	if f.getErr != nil {
		return 0, "", f.getErr
	}
	u, ok := f.users[login]
	if !ok {
		return 0, "", ErrUnknownUser
	}
	return u.id, u.hash, nil
}

func newTestEnv(clock clockwork.Clock) (*Authenv, *fakeUsers) {
	users := newFakeUsers()
	return &Authenv{
		JWTKey: []byte("test-key"),
		Repo:   users,
		Logger: zap.NewNop(),
		Clock:  clock,
	}, users
}

func post(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	h(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

// --- tests ---

func TestRegisterHandler_SetsSessionCookie(t *testing.T) {
	env, users := newTestEnv(clockwork.NewFakeClock())

	rec := post(t, env.RegisterHandler, `{"login":" ana ","email":"ana@example.com","password":"secreto1"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.UserID)
	assert.Equal(t, "ana", body.Login)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	id, login, err := env.ParseToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Equal(t, "ana", login)
	assert.NotEqual(t, "secreto1", users.users["ana"].hash)
}

func TestRegisterHandler_Rejects(t *testing.T) {
	env, _ := newTestEnv(nil)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing email", `{"login":"ana","password":"secreto1"}`, http.StatusBadRequest},
		{"bad email", `{"login":"ana","email":"nope","password":"secreto1"}`, http.StatusBadRequest},
		{"short password", `{"login":"ana","email":"ana@example.com","password":"123"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, env.RegisterHandler, tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	rec := post(t, env.RegisterHandler, `{"login":"ana","email":"ana@example.com","password":"secreto1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = post(t, env.RegisterHandler, `{"login":"ana","email":"ana@example.com","password":"secreto1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterHandler_StorageError(t *testing.T) {
	env, users := newTestEnv(nil)
	users.createErr = errors.New("connection refused")

	rec := post(t, env.RegisterHandler, `{"login":"ana","email":"ana@example.com","password":"secreto1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Nil(t, sessionCookie(rec))
}

func TestAuthHandler_Login(t *testing.T) {
	env, _ := newTestEnv(nil)
	require.Equal(t, http.StatusCreated, post(t, env.RegisterHandler, `{"login":"ana","email":"ana@example.com","password":"secreto1"}`).Code)

	rec := post(t, env.AuthHandler, `{"login":"ana","password":"secreto1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, sessionCookie(rec))

	rec = post(t, env.AuthHandler, `{"login":"ana","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sessionCookie(rec))

	rec = post(t, env.AuthHandler, `{"login":"bruno","password":"secreto1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(t, env.AuthHandler, `{"login":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_StorageError(t *testing.T) {
	env, users := newTestEnv(nil)
	users.getErr = errors.New("connection refused")

	rec := post(t, env.AuthHandler, `{"login":"ana","password":"secreto1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestLogoutHandler_ExpiresCookie(t *testing.T) {
	env, _ := newTestEnv(nil)
	rec := httptest.NewRecorder()
	env.LogoutHandler(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Less(t, cookie.MaxAge, 0)
}

func protected() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Header().Set("X-User", LoginFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte{byte('0' + id)})
	})
}

func TestAuthMiddleware(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	env, _ := newTestEnv(clock)
	h := env.AuthMiddleware(protected())

	token, err := env.IssueToken(7, "ana")
	require.NoError(t, err)

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ana", rec.Header().Get("X-User"))
		assert.Equal(t, "7", rec.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("foreign key", func(t *testing.T) {
		other := &Authenv{JWTKey: []byte("other-key"), Clock: clock}
		forged, err := other.IssueToken(7, "ana")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired", func(t *testing.T) {
		clock.Advance(TokenTTL + time.Minute)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	env, _ := newTestEnv(nil)
	h := env.OptionalAuth(protected())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code, "anonymous passes through without a user")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code, "invalid token is ignored")

	token, err := env.IssueToken(3, "ana")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
