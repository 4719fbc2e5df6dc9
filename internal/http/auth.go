package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"teamfin/internal/core"
)

const contextUserID = "user_id"

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// tokenIssuer signs and verifies HS256 bearer tokens.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

func (t *tokenIssuer) issue(u *core.User) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    "teamfin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

func (t *tokenIssuer) verify(raw string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer("teamfin"),
		jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	if c.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &c, nil
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userDTO   `json:"user"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := s.svc.Teams.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "Login failed", "client_ip", c.ClientIP(), "error", err)
		respondError(c, err)
		return
	}
	token, expires, err := s.tokens.issue(u)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: toUserDTO(u)})
}

// requireAuth accepts requests carrying a valid bearer token. Without a
// configured secret every request passes.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.tokens == nil {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		cl, err := s.tokens.verify(strings.TrimSpace(raw))
		if err != nil {
			slog.WarnContext(c.Request.Context(), "Rejected bearer token", "client_ip", c.ClientIP(), "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(contextUserID, cl.Subject)
		c.Next()
	}
}

// requireAuthUnlessEmpty lets the first user be created without a token.
func (s *Server) requireAuthUnlessEmpty() gin.HandlerFunc {
	auth := s.requireAuth()
	return func(c *gin.Context) {
		if s.tokens != nil {
			users, err := s.svc.Teams.ListUsers(c.Request.Context())
			if err != nil {
				respondError(c, err)
				return
			}
			if len(users) == 0 {
				c.Next()
				return
			}
		}
		auth(c)
	}
}
