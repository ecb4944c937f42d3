// handlers/handlers.go - Shared handler state and error mapping
package handlers

import (
	"errors"
	"log"

	"hackmate/middleware"
	"hackmate/models"
	"hackmate/services"
	"hackmate/utils"

	"github.com/gofiber/fiber/v2"
)

// Team size bounds applied to requests from clients. The repository only
// checks capacity on add.
const (
	MinTeamSize     = 2
	MaxTeamSize     = 10
	DefaultTeamSize = 4
)

var (
	teamService         *services.TeamService
	profileService      *services.ProfileService
	hackathonService    *services.HackathonService
	hackathonCache      *services.CachedHackathons
	notificationService *services.NotificationService
	eventHub            *services.EventHub
)

// Deps are the services the handlers use. HackathonMemo is nil when no
// redis is configured.
type Deps struct {
	Teams         *services.TeamService
	Profiles      *services.ProfileService
	Hackathons    *services.HackathonService
	HackathonMemo *services.CachedHackathons
	Notifications *services.NotificationService
	Events        *services.EventHub
}

// Init wires the handler package to its services.
func Init(d Deps) {
	if d.Teams == nil || d.Profiles == nil || d.Hackathons == nil || d.Notifications == nil || d.Events == nil {
		panic("handlers.Init: missing service")
	}
	teamService = d.Teams
	profileService = d.Profiles
	hackathonService = d.Hackathons
	hackathonCache = d.HackathonMemo
	notificationService = d.Notifications
	eventHub = d.Events
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case services.IsValidation(err):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		return fiber.StatusNotFound
	case services.IsConflict(err):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrCodeGeneration):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Messages are passed through
// verbatim; the app error handler hides 500 details in production.
func respondError(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
		return err
	}
	return utils.JSONError(c, status, err.Error())
}

// loadTeam fetches the team named by the :id param, writing a 404 when it
// does not exist.
func loadTeam(c *fiber.Ctx) (*models.Team, error) {
	team, err := teamService.GetTeam(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, services.ErrTeamNotFound
	}
	return team, nil
}

// loadTeamAsLead is loadTeam plus a check that the caller leads the team.
func loadTeamAsLead(c *fiber.Ctx) (*models.Team, string, error) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return nil, "", err
	}
	team, err := loadTeam(c)
	if err != nil {
		return nil, "", err
	}
	if !isLead(team, userID) {
		return nil, "", fiber.NewError(fiber.StatusForbidden, "Only the team lead can do this")
	}
	return team, userID, nil
}

// isLead reports whether userID leads team. Without a Team Lead member the
// creator leads, but only while still on the team.
func isLead(team *models.Team, userID string) bool {
	if lead := team.Lead(); lead != nil {
		return lead.ID == userID
	}
	return team.CreatedBy == userID && team.HasMember(userID)
}

// callerMember builds the member entry for the caller from their profile,
// falling back to the token's name and picture.
func callerMember(c *fiber.Ctx) (models.TeamMember, error) {
	id, err := middleware.GetIdentity(c)
	if err != nil {
		return models.TeamMember{}, err
	}
	profile, err := profileService.GetUserProfileData(c.UserContext(), id.UserID)
	if err != nil {
		return models.TeamMember{}, err
	}

	member := services.MemberFromProfile(id.UserID, profile)
	if profile == nil {
		if id.Name != "" {
			member.Name = id.Name
		}
		member.Avatar = id.Avatar
	}
	return member, nil
}
