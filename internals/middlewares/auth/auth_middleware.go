package auth

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"medcard_backend/internals/configs"
	"medcard_backend/internals/constants"
	authRepo "medcard_backend/internals/features/users/auth/repository"
	helper "medcard_backend/internals/helpers"
)

// clockSkew tolerates small clock drift between issuer and verifier.
const clockSkew = 30 * time.Second

// AuthMiddleware verifies the bearer token, rejects blacklisted tokens and
// inactive users, and stores user_id / userRole in Locals.
func AuthMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
		}

		blacklisted, err := authRepo.IsTokenBlacklisted(db, tokenString)
		if err != nil {
			log.Println("[ERROR] blacklist lookup:", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "internal server error")
		}
		if blacklisted {
			return helper.JsonError(c, fiber.StatusUnauthorized, "unauthorized - token is blacklisted")
		}

		secretKey := configs.JWTSecret
		if secretKey == "" {
			log.Println("[ERROR] JWT_SECRET is empty")
			return helper.JsonError(c, fiber.StatusInternalServerError, "missing JWT secret")
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secretKey), nil
		}); err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "unauthorized - token parse error")
		}

		if err := validateTokenExpiry(claims, clockSkew); err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "unauthorized - token expired")
		}

		userID, err := extractUserID(claims)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "unauthorized - invalid or missing user id")
		}

		if err := ensureUserActive(db, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.JsonError(c, fiber.StatusUnauthorized, "unauthorized - user not found")
			}
			if errors.Is(err, errUserInactive) {
				return helper.JsonError(c, fiber.StatusForbidden, "account is deactivated")
			}
			log.Println("[ERROR] ensureUserActive:", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "internal server error")
		}

		c.Locals(constants.LocalUserID, userID.String())
		helper.SetRawAccessToken(c, tokenString)
		storeBasicClaimsToLocals(c, claims)
		return c.Next()
	}
}
