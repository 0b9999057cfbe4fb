// Package middleware contains HTTP middleware functions for the Pub Golf API.
// Middleware sits between the HTTP server and route handlers. Here it resolves the caller's
// identity from the bearer token so handlers can pass an explicit uid into the engine.
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/pub-golf/internal/config"
	"github.com/trentd187/pub-golf/internal/models"
)

// Keys under which Auth stores the caller's identity in c.Locals.
const (
	LocalUserID   = "userID"
	LocalUserName = "userName"
)

// Claims is the token payload we expect from the identity provider.
// Subject is the stable user id; name and email are optional profile claims.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Auth returns a Fiber middleware handler that:
//  1. Validates the JWT from the "Authorization: Bearer <token>" header
//  2. Upserts the caller into the users table so display names are available to the engine
//  3. Stores the uid and display name in c.Locals for downstream handlers
//
// With a JWT secret configured, tokens must carry a valid HS256 signature. Without one (only
// allowed outside production) the token is decoded without verification.
func Auth(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := parseToken(cfg, tokenStr)
		if err != nil {
			log.Debug().Err(err).Msg("rejected bearer token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		uid := claims.Subject
		if uid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "token missing subject",
			})
		}

		user, err := syncUser(db.WithContext(c.UserContext()), uid, claims)
		if err != nil {
			log.Error().Err(err).Str("uid", uid).Msg("user sync failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal error",
			})
		}

		c.Locals(LocalUserID, user.UID)
		c.Locals(LocalUserName, user.DisplayName)
		return c.Next()
	}
}

// UserID returns the authenticated caller's uid, or "" outside of Auth.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(LocalUserID).(string)
	return uid
}

// UserName returns the caller's display name, which may be empty.
func UserName(c *fiber.Ctx) string {
	name, _ := c.Locals(LocalUserName).(string)
	return name
}

func parseToken(cfg *config.Config, tokenStr string) (*Claims, error) {
	claims := &Claims{}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("token verification is not configured")
		}
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return nil, err
		}
		return claims, nil
	}

	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// syncUser finds the caller's row, creating it on first sight and refreshing the profile
// fields when the token carries newer values.
func syncUser(db *gorm.DB, uid string, claims *Claims) (*models.User, error) {
	var user models.User
	err := db.Where("uid = ?", uid).First(&user).Error
	if err == nil {
		updates := map[string]any{}
		if claims.Name != "" && claims.Name != user.DisplayName {
			updates["display_name"] = claims.Name
			user.DisplayName = claims.Name
		}
		if claims.Email != "" && claims.Email != user.Email {
			updates["email"] = claims.Email
			user.Email = claims.Email
		}
		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		UID:         uid,
		DisplayName: claims.Name,
		Email:       claims.Email,
	}
	// Two first requests from the same user can race here; the loser keeps the winner's row.
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
