// handlers/hackathons.go - Hackathon discovery endpoints
package handlers

import (
	"hackmate/services"
	"hackmate/utils"

	"github.com/gofiber/fiber/v2"
)

func hackathonLookup() services.HackathonLookup {
	if hackathonCache != nil {
		return hackathonCache
	}
	return hackathonService
}

// GetHackathons lists hackathons by start date
// GET /api/hackathons?upcoming=true
func GetHackathons(c *fiber.Ctx) error {
	hackathons, err := hackathonService.ListHackathons(c.UserContext(), utils.QueryBool(c, "upcoming"))
	if err != nil {
		return respondError(c, err)
	}

	return utils.JSONSuccess(c, fiber.Map{
		"hackathons": hackathons,
		"count":      len(hackathons),
	})
}

// GetHackathon returns a single hackathon
// GET /api/hackathons/:id
func GetHackathon(c *fiber.Ctx) error {
	h, err := hackathonLookup().GetHackathonByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if h == nil {
		return utils.JSONError(c, fiber.StatusNotFound, "Hackathon not found")
	}
	return utils.JSONSuccess(c, fiber.Map{"hackathon": h})
}
