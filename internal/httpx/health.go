package httpx

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit"
)

// HealthHandler 处理健康检查请求
//
//	@Summary		健康检查
//	@Description	检查服务的健康状态
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}	"服务健康"
//	@Router			/health [get]
func HealthHandler(c *fiber.Ctx) error {
	return kit.OK(c, fiber.Map{"status": "ok"})
}
