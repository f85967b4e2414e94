package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit"
	"github.com/kylinpoet/song-for-guoxi/internal/httpx/mw"
	"github.com/kylinpoet/song-for-guoxi/internal/logx"
	"github.com/kylinpoet/song-for-guoxi/internal/store"
)

var authLogger = logx.GetScope("auth")

// ConfigReader yields the current church configuration.
type ConfigReader interface {
	GetConfig(ctx context.Context) store.ChurchConfig
}

// LoginHandler checks the submitted password against the stored admin
// password and, on success, issues the shared admin token as a cookie.
//
//	@Summary      Admin login
//	@Description  Compare form field password with the stored admin password; set admin_token cookie
//	@Tags         auth
//	@Accept       x-www-form-urlencoded
//	@Produce      json
//	@Param        password  formData  string  true  "admin password"
//	@Success      200   {object}  auth.LoginResponse
//	@Failure      403   {object}  map[string]interface{}
//	@Router       /admin [post]
func LoginHandler(cfgs ConfigReader, token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		password := c.FormValue("password")
		cfg := cfgs.GetConfig(ctx)
		if password == "" || !mw.ValidToken(password, cfg.AdminPassword) {
			authLogger.Sugar().Infof("admin login rejected from %s", c.IP())
			return kit.Forbidden("密码错误")
		}
		mw.SetAdminCookie(c, token)
		return c.JSON(LoginResponse{Success: true, Token: token})
	}
}
