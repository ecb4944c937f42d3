// utils/response.go - JSON envelope helpers for fiber handlers
package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// JSONError sends {"success": false, "error": message}.
func JSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// JSONSuccess sends a 200 envelope. Map payloads are merged into the
// envelope; anything else is placed under "data".
func JSONSuccess(c *fiber.Ctx, data interface{}) error {
	return JSONStatus(c, fiber.StatusOK, data)
}

// JSONStatus is JSONSuccess with an explicit status code.
func JSONStatus(c *fiber.Ctx, status int, data interface{}) error {
	response := fiber.Map{
		"success": true,
	}

	switch v := data.(type) {
	case nil:
	case fiber.Map:
		for k, val := range v {
			response[k] = val
		}
	case map[string]interface{}:
		for k, val := range v {
			response[k] = val
		}
	default:
		response["data"] = data
	}

	return c.Status(status).JSON(response)
}

// QueryInt reads an integer query parameter, falling back to defaultValue
// when absent or malformed.
func QueryInt(c *fiber.Ctx, key string, defaultValue int) int {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return n
}

// QueryBool reads a boolean query parameter ("true", "1", ...).
func QueryBool(c *fiber.Ctx, key string) bool {
	b, err := strconv.ParseBool(c.Query(key))
	return err == nil && b
}
