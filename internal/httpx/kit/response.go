package kit

import (
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// RequestID extracts request id from headers
func RequestID(c *fiber.Ctx) string {
	rid := c.GetRespHeader("X-Request-ID")
	return lo.Ternary(rid != "", rid, c.Get("X-Request-ID"))
}

// OK sends a 200 response of the form {"success": true, ...fields}.
func OK(c *fiber.Ctx, fields fiber.Map) error {
	return c.Status(fiber.StatusOK).JSON(lo.Assign(fiber.Map{"success": true}, fields))
}

// Fail sends {"success": false, "code": code, "error": msg} with status.
func Fail(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success":    false,
		"code":       code,
		"error":      msg,
		"request_id": RequestID(c),
	})
}
