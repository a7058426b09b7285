package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"phishlab/middleware"
	"phishlab/storage"
	"phishlab/utils"
)

const tokenIssuer = "phishlab"

var ErrInvalidToken = errors.New("invalid token")

// Claims identifies the operator a bearer token was issued to
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies API bearer tokens with HS256
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer for secret
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for username
func (t *TokenIssuer) Issue(username string) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)

	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	return signed, expires, err
}

// Parse validates tokenStr and returns its claims
func (t *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	parser := jwt.NewParser(
		jwt.WithIssuer(tokenIssuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// APIAuth accepts either a bearer token or an authenticated browser session
func APIAuth(tokens *TokenIssuer, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if header := c.Get(fiber.HeaderAuthorization); header != "" {
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return utils.UnauthorizedError("Bearer token required", nil)
			}
			claims, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				return utils.UnauthorizedError("Invalid token", err)
			}
			c.Locals("username", claims.Username)
			return c.Next()
		}

		sess, err := store.Get(c)
		if err == nil {
			if auth, _ := sess.Get(middleware.SessionAuthenticated).(bool); auth {
				c.Locals("username", sess.Get(middleware.SessionUsername))
				return c.Next()
			}
		}
		return utils.UnauthorizedError("Authentication required", nil)
	}
}

// TokenHandler exchanges operator credentials for a bearer token
type TokenHandler struct {
	tokens      *TokenIssuer
	credentials *storage.CredentialStorage
}

func NewTokenHandler(tokens *TokenIssuer, credentials *storage.CredentialStorage) *TokenHandler {
	return &TokenHandler{tokens: tokens, credentials: credentials}
}

type tokenRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// HandleToken handles POST /api/token
func (h *TokenHandler) HandleToken(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request body", err)
	}

	if req.Username == "" || req.Password == "" {
		return utils.BadRequestError("Username and password are required", nil)
	}

	if !h.credentials.Verify(req.Username, req.Password) {
		utils.Log.Warn("API token refused for %s from %s", req.Username, c.IP())
		return utils.UnauthorizedError("Invalid credentials", nil)
	}

	token, expires, err := h.tokens.Issue(req.Username)
	if err != nil {
		return utils.InternalServerError("Failed to create token", err)
	}

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": expires.Format(time.RFC3339),
	})
}
