// handlers/profile.go - Profile and portfolio endpoints
package handlers

import (
	"hackmate/middleware"
	"hackmate/models"
	"hackmate/utils"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile returns the caller's profile, or an empty one seeded from
// the token when none was saved yet
// GET /api/profile/me
func GetMyProfile(c *fiber.Ctx) error {
	id, err := middleware.GetIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	profile, err := profileService.GetUserProfileData(c.UserContext(), id.UserID)
	if err != nil {
		return respondError(c, err)
	}
	if profile == nil {
		profile = &models.UserProfile{
			ID:          id.UserID,
			DisplayName: id.Name,
			Avatar:      id.Avatar,
			Skills:      []string{},
			Projects:    []models.PortfolioProject{},
		}
	}

	return utils.JSONSuccess(c, fiber.Map{"profile": profile})
}

// UpdateMyProfile saves the caller's profile
// PUT /api/profile/me
func UpdateMyProfile(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var profile models.UserProfile
	if err := c.BodyParser(&profile); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	profile.ID = userID

	if err := profileService.SaveProfile(c.UserContext(), &profile); err != nil {
		return respondError(c, err)
	}

	return utils.JSONSuccess(c, fiber.Map{
		"message": "Profile saved",
		"profile": profile,
	})
}

// GetUserProfile returns another user's public profile
// GET /api/profile/:id
func GetUserProfile(c *fiber.Ctx) error {
	profile, err := profileService.GetUserProfileData(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if profile == nil {
		return utils.JSONError(c, fiber.StatusNotFound, "Profile not found")
	}
	return utils.JSONSuccess(c, fiber.Map{"profile": profile})
}
