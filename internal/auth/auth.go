package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"SafeStruct/internal/respond"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	loginKey  contextKey = "userLogin"
)

const (
	CookieName        = "session_token"
	TokenTTL          = 30 * 24 * time.Hour
	MinPasswordLength = 6
)

// ErrUnknownUser is returned by a UserRepository when the login does not exist.
var ErrUnknownUser = errors.New("unknown user")

// ErrUserExists is returned by CreateUser when the login is taken.
var ErrUserExists = errors.New("user already exists")

var errInvalidToken = errors.New("invalid token")

type UserRepository interface {
	CreateUser(ctx context.Context, login, email, passwordHash string) (int, error)
	GetByLogin(ctx context.Context, login string) (int, string, error)
}

type Authenv struct {
	JWTKey       []byte
	Repo         UserRepository
	Logger       *zap.Logger
	Clock        clockwork.Clock
	SecureCookie bool
}

type Loginrequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type Registerrequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type sessionResponse struct {
	UserID int    `json:"user_id"`
	Login  string `json:"login"`
}

type claims struct {
	UserID int    `json:"user_id"`
	Login  string `json:"login"`
	jwt.RegisteredClaims
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// UserIDFromContext returns the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok && id != 0
}

func LoginFromContext(ctx context.Context) string {
	login, _ := ctx.Value(loginKey).(string)
	return login
}

// WithUser attaches an authenticated user to ctx.
func WithUser(ctx context.Context, userID int, login string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, loginKey, login)
}

func (env *Authenv) now() time.Time {
	if env.Clock == nil {
		return time.Now()
	}
	return env.Clock.Now()
}

func (env *Authenv) log() *zap.Logger {
	if env.Logger == nil {
		return zap.NewNop()
	}
	return env.Logger
}

// IssueToken signs an HS256 session token for the user.
func (env *Authenv) IssueToken(userID int, login string) (string, error) {
	now := env.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		Login:  login,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	})
	return token.SignedString(env.JWTKey)
}

// ParseToken validates the signature and expiry and returns the user.
func (env *Authenv) ParseToken(tokenString string) (int, string, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(*jwt.Token) (interface{}, error) {
		return env.JWTKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(env.now))
	if err != nil {
		return 0, "", err
	}
	if !token.Valid || c.UserID == 0 || c.Login == "" {
		return 0, "", errInvalidToken
	}
	return c.UserID, c.Login, nil
}

// tokenFromRequest reads the session cookie, then a bearer header.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// AuthMiddleware rejects requests without a valid session.
func (env *Authenv) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			respond.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		userID, login, err := env.ParseToken(raw)
		if err != nil {
			env.log().Debug("rejecting session token", zap.Error(err))
			respond.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, login)))
	})
}

// OptionalAuth attaches the user when a valid session is present and lets
// anonymous requests through.
func (env *Authenv) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := tokenFromRequest(r); raw != "" {
			if userID, login, err := env.ParseToken(raw); err == nil {
				r = r.WithContext(WithUser(r.Context(), userID, login))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (env *Authenv) addCookie(w http.ResponseWriter, userID int, login string) error {
	tokenString, err := env.IssueToken(userID, login)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tokenString,
		Expires:  env.now().Add(TokenTTL),
		Path:     "/",
		HttpOnly: true,
		Secure:   env.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (env *Authenv) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req Registerrequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	req.Email = strings.TrimSpace(req.Email)
	if req.Login == "" || req.Email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "Login, email and password required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid email")
		return
	}
	if len(req.Password) < MinPasswordLength {
		respond.Error(w, http.StatusBadRequest, "Password too short")
		return
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		env.log().Error("hash password", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Error hashing password")
		return
	}
	id, err := env.Repo.CreateUser(r.Context(), req.Login, req.Email, hashedPassword)
	if errors.Is(err, ErrUserExists) {
		respond.Error(w, http.StatusConflict, "User already exists")
		return
	}
	if err != nil {
		env.log().Error("create user", zap.String("login", req.Login), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Storage error")
		return
	}

	if err := env.addCookie(w, id, req.Login); err != nil {
		env.log().Error("issue token", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Token error")
		return
	}
	respond.JSON(w, http.StatusCreated, sessionResponse{UserID: id, Login: req.Login})
}

func (env *Authenv) AuthHandler(w http.ResponseWriter, r *http.Request) {
	var req Loginrequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "Login and password required")
		return
	}

	id, storedHash, err := env.Repo.GetByLogin(r.Context(), req.Login)
	if errors.Is(err, ErrUnknownUser) {
		respond.Error(w, http.StatusUnauthorized, "Invalid login or password")
		return
	}
	if err != nil {
		env.log().Error("get user by login", zap.String("login", req.Login), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Storage error")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)); err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid login or password")
		return
	}

	if err := env.addCookie(w, id, req.Login); err != nil {
		env.log().Error("issue token", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Token error")
		return
	}
	respond.JSON(w, http.StatusOK, sessionResponse{UserID: id, Login: req.Login})
}

func (env *Authenv) LogoutHandler(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   env.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
