// routes/router.go - Route table
package routes

import (
	"time"

	"hackmate/handlers"
	"hackmate/middleware"

	"github.com/gofiber/fiber/v2"
)

// Setup registers every route on app. Handlers must be initialized first.
// joinLimit throttles join requests per caller; nil disables it.
func Setup(app *fiber.App, auth *middleware.Authenticator, joinLimit *middleware.RateLimiter) {
	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	})

	api := app.Group("/api")

	// Hackathon discovery (public)
	api.Get("/hackathons", handlers.GetHackathons)
	api.Get("/hackathons/:id", handlers.GetHackathon)

	// Team routes
	teamGroup := api.Group("/teams", auth.Required)
	teamGroup.Post("/", handlers.CreateTeam)
	teamGroup.Get("/mine", handlers.GetUserTeams)
	teamGroup.Get("/available", handlers.GetAvailableTeams)
	teamGroup.Get("/code/:code", handlers.GetTeamByCode)
	teamGroup.Get("/:id", handlers.GetTeam)
	teamGroup.Put("/:id", handlers.UpdateTeam)
	teamGroup.Delete("/:id", handlers.DeleteTeam)
	teamGroup.Get("/:id/membership", handlers.CheckMembership)
	teamGroup.Post("/:id/members", handlers.AddMember)
	teamGroup.Delete("/:id/members/:memberId", handlers.RemoveMember)

	// Join requests
	teamGroup.Get("/:id/requests", handlers.ListJoinRequests)
	if joinLimit != nil {
		teamGroup.Post("/:id/requests",
			joinLimit.HandlerFor(middleware.ByUser, "Too many join requests. Please try again later."),
			handlers.RequestToJoin)
	} else {
		teamGroup.Post("/:id/requests", handlers.RequestToJoin)
	}
	teamGroup.Delete("/:id/requests", handlers.CancelJoinRequest)
	teamGroup.Post("/:id/requests/:userId/accept", handlers.AcceptJoinRequest)
	teamGroup.Post("/:id/requests/:userId/reject", handlers.RejectJoinRequest)

	// Profiles
	profileGroup := api.Group("/profile", auth.Required)
	profileGroup.Get("/me", handlers.GetMyProfile)
	profileGroup.Put("/me", handlers.UpdateMyProfile)
	profileGroup.Get("/:id", handlers.GetUserProfile)

	// Notifications
	notificationGroup := api.Group("/notifications", auth.Required)
	notificationGroup.Get("/", handlers.GetNotifications)
	notificationGroup.Put("/:id/read", handlers.MarkNotificationRead)

	// Live team events
	app.Get("/ws/teams/:id", handlers.UpgradeTeamEvents, auth.WebSocket, handlers.AuthorizeTeamEvents, handlers.TeamEvents)
}
