// middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"hackmate/config"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload. Firebase ID tokens carry the uid in both sub
// and user_id; locally issued tokens set user_id.
type Claims struct {
	UserID  string `json:"user_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Name   string
	Avatar string
}

// Authenticator verifies bearer tokens, either with a shared HMAC secret or
// against a remote JWKS.
type Authenticator struct {
	keyFunc jwt.Keyfunc
	options []jwt.ParserOption
}

// NewAuthenticator builds the verifier described by cfg. A JWKS URL takes
// precedence over JWT_SECRET.
func NewAuthenticator(ctx context.Context, cfg *config.Config) (*Authenticator, error) {
	var a *Authenticator

	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWKS from %s: %w", cfg.JWKSURL, err)
		}
		log.Printf("🔐 JWKS initialized from %s", cfg.JWKSURL)
		a = &Authenticator{
			keyFunc: jwks.Keyfunc,
			options: []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256"})},
		}
	} else {
		a = NewHMACAuthenticator(cfg.JWTSecret)
	}

	if pid := cfg.FirebaseProjectID; pid != "" {
		a.options = append(a.options,
			jwt.WithIssuer("https://securetoken.google.com/"+pid),
			jwt.WithAudience(pid),
		)
	}
	return a, nil
}

// NewHMACAuthenticator verifies HS256 tokens signed with secret.
func NewHMACAuthenticator(secret string) *Authenticator {
	key := []byte(secret)
	return &Authenticator{
		keyFunc: func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return key, nil
		},
		options: []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})},
	}
}

// Parse validates tokenString and returns the identity it carries.
func (a *Authenticator) Parse(tokenString string) (*Identity, error) {
	opts := append([]jwt.ParserOption{jwt.WithExpirationRequired()}, a.options...)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, a.keyFunc, opts...)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, errors.New("token has no user id")
	}

	return &Identity{UserID: userID, Name: claims.Name, Avatar: claims.Picture}, nil
}

// Required rejects requests without a valid bearer token and stores the
// caller in c.Locals.
func (a *Authenticator) Required(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Missing authorization header"})
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid authorization header format"})
	}

	id, err := a.Parse(parts[1])
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid or expired token"})
	}

	setIdentity(c, id)
	return c.Next()
}

// WebSocket authenticates websocket upgrades. Browsers cannot set headers on
// the upgrade request, so the token may also come from ?token= or the
// "token" cookie.
func (a *Authenticator) WebSocket(c *fiber.Ctx) error {
	var tokenString string

	if parts := strings.Split(c.Get("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
		tokenString = parts[1]
	}
	if tokenString == "" {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		tokenString = c.Cookies("token")
	}
	if tokenString == "" {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Missing token"})
	}

	id, err := a.Parse(tokenString)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid or expired token"})
	}

	setIdentity(c, id)
	return c.Next()
}

func setIdentity(c *fiber.Ctx, id *Identity) {
	c.Locals("userId", id.UserID)
	c.Locals("username", id.Name)
	c.Locals("avatar", id.Avatar)
}

func GetUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals("userId").(string)
	if !ok || userID == "" {
		return "", fiber.NewError(401, "User not authenticated")
	}
	return userID, nil
}

// GetIdentity returns the caller stored by Required or WebSocket.
func GetIdentity(c *fiber.Ctx) (*Identity, error) {
	userID, err := GetUserID(c)
	if err != nil {
		return nil, err
	}
	name, _ := c.Locals("username").(string)
	avatar, _ := c.Locals("avatar").(string)
	return &Identity{UserID: userID, Name: name, Avatar: avatar}, nil
}

// IssueToken signs an HS256 token for id that expires after ttl.
func IssueToken(secret string, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  id.UserID,
		Name:    id.Name,
		Picture: id.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
