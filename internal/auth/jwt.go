package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

const (
	// SessionCookie holds the signed session token.
	SessionCookie = "session"

	issuer      = "bizdirectory"
	userIDKey   = "auth.user_id"
	newUserPath = "/check_new_user"
	logoutPath  = "/logout"
)

var ErrInvalidToken = errors.New("invalid session token")

// Provider resolves the caller of a request and the sign-in/out entry points.
type Provider interface {
	CurrentUserID(c *gin.Context) string
	LoginURL() string
	LogoutURL() string
}

// SessionClaims are the claims of a session token; the subject is the user id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// JWTProvider issues and verifies HS256 session tokens shared with the sign-in page.
type JWTProvider struct {
	secret   []byte
	ttl      time.Duration
	loginURL string
	secure   bool
	now      func() time.Time
}

func NewJWTProvider(secret, loginURL string, ttl time.Duration, secure bool) *JWTProvider {
	return &JWTProvider{
		secret:   []byte(secret),
		ttl:      ttl,
		loginURL: loginURL,
		secure:   secure,
		now:      time.Now,
	}
}

// Issue signs a session token for userID.
func (p *JWTProvider) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}
	now := p.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Verify checks the signature and expiry of token and returns its subject.
func (p *JWTProvider) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		// only HMAC, so a token cannot pick "none" or an asymmetric alg
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(p.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Middleware resolves the caller from the session cookie or a bearer token.
// Requests without credentials pass through anonymously; a malformed bearer
// header is rejected, a stale cookie is dropped.
func (p *JWTProvider) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": http.StatusUnauthorized, "error": "Invalid token format"})
				return
			}
			userID, err := p.Verify(token)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": http.StatusUnauthorized, "error": "Invalid or expired token"})
				return
			}
			c.Set(userIDKey, userID)
			c.Next()
			return
		}

		if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
			userID, err := p.Verify(token)
			if err != nil {
				log.WithField("path", c.Request.URL.Path).Debugf("dropping session cookie: %v", err)
				p.EndSession(c)
			} else {
				c.Set(userIDKey, userID)
			}
		}
		c.Next()
	}
}

// CurrentUserID returns the caller resolved by Middleware, or "" if anonymous.
func (p *JWTProvider) CurrentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// LoginURL points at the sign-in page, which returns to the new-user check with a token.
func (p *JWTProvider) LoginURL() string {
	sep := "?"
	if strings.Contains(p.loginURL, "?") {
		sep = "&"
	}
	return p.loginURL + sep + "continue=" + newUserPath
}

func (p *JWTProvider) LogoutURL() string {
	return logoutPath
}

// StartSession verifies token and stores it in the session cookie.
func (p *JWTProvider) StartSession(c *gin.Context, token string) (string, error) {
	userID, err := p.Verify(token)
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(p.ttl.Seconds()), "/", "", p.secure, true)
	c.Set(userIDKey, userID)
	return userID, nil
}

func (p *JWTProvider) EndSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", p.secure, true)
}
