package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"golang.org/x/crypto/bcrypt"

	"smarttrack/internal/config"
	"smarttrack/internal/domain"
	"smarttrack/internal/log"
)

// RequireWriter guards state-changing routes with HTTP basic auth when an admin
// account is configured; otherwise it lets every request through.
func RequireWriter(cfg config.Config) fiber.Handler {
	if cfg.AdminUser == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	user := []byte(cfg.AdminUser)
	hash := []byte(cfg.AdminPasswordHash)
	realm := "SmartTrack"

	return basicauth.New(basicauth.Config{
		Realm: realm,
		Authorizer: func(u, p string) bool {
			userOK := subtle.ConstantTimeCompare([]byte(u), user) == 1
			passOK := bcrypt.CompareHashAndPassword(hash, []byte(p)) == nil
			return userOK && passOK
		},
		Unauthorized: func(c *fiber.Ctx) error {
			log.Security(c, "access.denied.write", nil)
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="`+realm+`"`)
			if isAPI(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(errorBody{Error: errorDetail{
					Kind: domain.KindUnauthorized, Message: "authentication required",
				}})
			}
			return c.Status(fiber.StatusUnauthorized).Render("notfound", fiber.Map{"Message": "Access denied"})
		},
	})
}
