package locale

import "github.com/gofiber/fiber/v2"

const localsKey = "locale"

// Store records the resolved locale on the request.
func Store(c *fiber.Ctx, loc string) {
	c.Locals(localsKey, loc)
}

// FromCtx returns the locale resolved for the request, or fallback when the
// request never went through locale resolution.
func FromCtx(c *fiber.Ctx, fallback string) string {
	if loc, ok := c.Locals(localsKey).(string); ok && loc != "" {
		return loc
	}
	return fallback
}

// Prefix joins loc and an absolute path into a locale-prefixed path.
func Prefix(loc, path string) string {
	if path == "" || path == "/" {
		return "/" + loc
	}
	return "/" + loc + path
}
