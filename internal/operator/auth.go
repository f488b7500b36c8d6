package operator

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a login attempt's username or
// password doesn't match a configured operator account.
var ErrInvalidCredentials = errors.New("operator: invalid credentials")

const (
	sessionCookieName = "operator-session"
	tokenValidity     = 24 * time.Hour
)

// Claims is the JWT payload issued on successful login, the same
// Username+StandardClaims shape the teacher's auth package uses.
type Claims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

// Auth holds the operator account table and the two credential mechanisms
// layered on top of it: a gorilla/sessions cookie that gates the login
// flow, and a dgrijalva/jwt-go bearer token that gates every subsequent
// API call.
type Auth struct {
	passwordHashes map[string]string // username -> bcrypt hash
	jwtSecret      []byte
	cookies        sessions.Store
}

// NewAuth builds an Auth. passwordHashes maps operator usernames to
// bcrypt password hashes (see HashPassword); cookieHashKey seeds the
// gorilla/sessions cookie store.
func NewAuth(passwordHashes map[string]string, jwtSecret, cookieHashKey []byte) *Auth {
	return &Auth{
		passwordHashes: passwordHashes,
		jwtSecret:      jwtSecret,
		cookies:        sessions.NewCookieStore(cookieHashKey),
	}
}

// HashPassword hashes a plaintext operator password for storage.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// Login verifies username/password, opens (or refreshes) the gating
// session cookie on the response, and issues a signed JWT on success.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request, username, password string) (string, error) {
	hash, ok := a.passwordHashes[username]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	sess, err := a.cookies.New(r, sessionCookieName)
	if err != nil {
		return "", err
	}
	sess.Values["username"] = username
	sess.Values["authenticated"] = true
	if err := a.cookies.Save(r, w, sess); err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		Username: username,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenValidity).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// Middleware is a gin.HandlerFunc gating the operator API routes below
// /operator (all but /operator/login) behind a valid bearer JWT, grounded on the teacher's
// AuthMiddleware/extractToken/parseToken trio.
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c.Request)
		if tokenString == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims, err := a.parseToken(tokenString)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("operatorUsername", claims.Username)
		c.Next()
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func (a *Auth) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("operator: invalid token claims")
	}
	return claims, nil
}
