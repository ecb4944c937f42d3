// handlers/join_requests.go - Join request workflow endpoints
package handlers

import (
	"log"

	"hackmate/middleware"
	"hackmate/services"
	"hackmate/utils"

	"github.com/gofiber/fiber/v2"
)

// RequestToJoin files a join request for the caller and notifies the lead
// POST /api/teams/:id/requests
func RequestToJoin(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	team, err := loadTeam(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := teamService.AddJoinRequest(c.UserContext(), team.ID, userID); err != nil {
		return respondError(c, err)
	}

	requester, err := callerMember(c)
	if err != nil {
		log.Printf("⚠️ Could not load requester profile %s: %v", userID, err)
		requester = services.MemberFromProfile(userID, nil)
	}
	notification := services.JoinRequestNotification(team, requester)
	if lead := team.Lead(); lead != nil {
		notification.UserID = lead.ID
	}
	notificationService.Notify(c.UserContext(), notification)
	eventHub.PublishTeam(team.ID, services.EventJoinRequested, userID)

	return utils.JSONStatus(c, fiber.StatusCreated, fiber.Map{"message": "Join request sent"})
}

// CancelJoinRequest withdraws the caller's request
// DELETE /api/teams/:id/requests
func CancelJoinRequest(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	teamID := c.Params("id")
	if err := teamService.RemoveJoinRequest(c.UserContext(), teamID, userID); err != nil {
		return respondError(c, err)
	}

	eventHub.PublishTeam(teamID, services.EventJoinCancelled, userID)
	return utils.JSONSuccess(c, fiber.Map{"message": "Join request cancelled"})
}

// AcceptJoinRequest admits the requester (lead only)
// POST /api/teams/:id/requests/:userId/accept
func AcceptJoinRequest(c *fiber.Ctx) error {
	team, leadID, err := loadTeamAsLead(c)
	if err != nil {
		return respondError(c, err)
	}

	requesterID := c.Params("userId")
	profile, err := profileService.GetUserProfileData(c.UserContext(), requesterID)
	if err != nil {
		return respondError(c, err)
	}

	member := services.MemberFromProfile(requesterID, profile)
	if err := teamService.AcceptJoinRequest(c.UserContext(), team.ID, member); err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ %s accepted %s into team %s", leadID, requesterID, team.ID)
	notificationService.Notify(c.UserContext(), services.JoinDecisionNotification(team, requesterID, leadID, true))
	eventHub.PublishTeam(team.ID, services.EventJoinAccepted, requesterID)

	return utils.JSONSuccess(c, fiber.Map{
		"message": "Join request accepted",
		"member":  member,
	})
}

// RejectJoinRequest declines the requester (lead only)
// POST /api/teams/:id/requests/:userId/reject
func RejectJoinRequest(c *fiber.Ctx) error {
	team, leadID, err := loadTeamAsLead(c)
	if err != nil {
		return respondError(c, err)
	}

	requesterID := c.Params("userId")
	if err := teamService.RejectJoinRequest(c.UserContext(), team.ID, requesterID); err != nil {
		return respondError(c, err)
	}

	notificationService.Notify(c.UserContext(), services.JoinDecisionNotification(team, requesterID, leadID, false))
	eventHub.PublishTeam(team.ID, services.EventJoinRejected, requesterID)

	return utils.JSONSuccess(c, fiber.Map{"message": "Join request rejected"})
}

// ListJoinRequests returns the pending requesters with their profiles
// (lead only)
// GET /api/teams/:id/requests
func ListJoinRequests(c *fiber.Ctx) error {
	team, _, err := loadTeamAsLead(c)
	if err != nil {
		return respondError(c, err)
	}

	profiles, err := profileService.GetProfiles(c.UserContext(), team.JoinRequests)
	if err != nil {
		return respondError(c, err)
	}

	requests := make([]fiber.Map, 0, len(team.JoinRequests))
	for _, id := range team.JoinRequests {
		member := services.MemberFromProfile(id, nil)
		if p, ok := profiles[id]; ok {
			member = services.MemberFromProfile(id, &p)
		}
		requests = append(requests, fiber.Map{"userId": id, "profile": member})
	}

	return utils.JSONSuccess(c, fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}
