package middleware

import (
	"clanManager/domain"
	"clanManager/pkg/logger"
	"clanManager/pkg/utils"
	"net/http"
	"strings"
	"time"

	jsonres "clanManager/pkg/response"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware validates the bearer token issued to the Discord front-end.
func AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Missing authorization header", nil,
				))
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Invalid authorization format", nil,
				))
			}

			claims, err := utils.ParseJWT(tokenParts[1])
			if err != nil {
				logger.Warn("Failed to parse JWT", "error", err)
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Invalid token", nil,
				))
			}

			expAt, err := claims.GetExpirationTime()
			if err != nil || expAt == nil || time.Now().After(expAt.Time) {
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Token expired", nil,
				))
			}

			if claims.DiscordID == "" {
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Invalid discord id in token", nil,
				))
			}

			c.Set("discord_id", claims.DiscordID)
			c.Set("role", claims.Role)

			return next(c)
		}
	}
}

// LeaderOnly admits callers holding a leader or co-leader role.
func LeaderOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !domain.ClanRole(role).IsLeadership() {
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Leader access required", nil,
				))
			}

			return next(c)
		}
	}
}
