// handlers/teams.go - Team HTTP Handlers
package handlers

import (
	"log"
	"time"

	"hackmate/middleware"
	"hackmate/models"
	"hackmate/services"
	"hackmate/utils"

	"github.com/gofiber/fiber/v2"
)

// ================== TEAM CRUD ENDPOINTS ==================

type createTeamRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	RequiredSkills []string `json:"requiredSkills"`
	MaxMembers     int      `json:"maxMembers"`
	HackathonID    string   `json:"hackathonId"`
	HackathonName  string   `json:"hackathonName"`
}

// CreateTeam creates a new team led by the caller. Other members join
// through requests or are added by the lead afterwards.
// POST /api/teams
func CreateTeam(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req createTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.MaxMembers == 0 {
		req.MaxMembers = DefaultTeamSize
	}
	if req.MaxMembers < MinTeamSize || req.MaxMembers > MaxTeamSize {
		return respondError(c, &services.ValidationError{
			Field:   "maxMembers",
			Message: "maxMembers must be between 2 and 10",
		})
	}

	creator, err := callerMember(c)
	if err != nil {
		return respondError(c, err)
	}

	team, err := teamService.CreateTeam(c.UserContext(), services.CreateTeamInput{
		Name:           req.Name,
		Description:    req.Description,
		RequiredSkills: req.RequiredSkills,
		MaxMembers:     req.MaxMembers,
		HackathonID:    req.HackathonID,
		HackathonName:  req.HackathonName,
		CreatedBy:      userID,
		Members:        []models.TeamMember{creator},
	})
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ Team created: id=%s code=%s by %s", team.ID, team.TeamCode, userID)
	eventHub.PublishTeam(team.ID, services.EventTeamCreated, userID)

	return utils.JSONStatus(c, fiber.StatusCreated, fiber.Map{
		"message": "Team created successfully",
		"team":    team,
	})
}

// GetTeam retrieves a team by ID
// GET /api/teams/:id
func GetTeam(c *fiber.Ctx) error {
	team, err := loadTeam(c)
	if err != nil {
		return respondError(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{"team": team})
}

// GetTeamByCode looks a team up by its share code
// GET /api/teams/code/:code
func GetTeamByCode(c *fiber.Ctx) error {
	team, err := teamService.GetTeamByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	if team == nil {
		return utils.JSONError(c, fiber.StatusNotFound, "No team found with that code")
	}
	return utils.JSONSuccess(c, fiber.Map{"team": team})
}

// GetUserTeams retrieves the caller's teams
// GET /api/teams/mine
func GetUserTeams(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	teams, err := teamService.GetUserTeams(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return utils.JSONSuccess(c, fiber.Map{
		"teams": teams,
		"count": len(teams),
	})
}

// GetAvailableTeams lists teams with a free seat that the caller is not in
// GET /api/teams/available
func GetAvailableTeams(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	available, err := teamService.GetAvailableTeams(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	mine, err := teamService.GetUserTeams(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	teams := excludeTeams(available, mine)
	return utils.JSONSuccess(c, fiber.Map{
		"teams": teams,
		"count": len(teams),
	})
}

// UpdateTeam applies a partial update and notifies the other members
// PUT /api/teams/:id
func UpdateTeam(c *fiber.Ctx) error {
	team, userID, err := loadTeamAsLead(c)
	if err != nil {
		return respondError(c, err)
	}

	var patch services.TeamPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if patch.MaxMembers != nil && (*patch.MaxMembers < MinTeamSize || *patch.MaxMembers > MaxTeamSize) {
		return respondError(c, &services.ValidationError{
			Field:   "maxMembers",
			Message: "maxMembers must be between 2 and 10",
		})
	}

	if err := teamService.UpdateTeam(c.UserContext(), team.ID, patch); err != nil {
		return respondError(c, err)
	}

	notificationService.NotifyMembers(c.UserContext(), team, services.TeamUpdatedNotification(team, patch, userID))
	eventHub.PublishTeam(team.ID, services.EventTeamUpdated, userID)

	updated, err := teamService.GetTeam(c.UserContext(), team.ID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{
		"message": "Team updated successfully",
		"team":    updated,
	})
}

// DeleteTeam deletes a team
// DELETE /api/teams/:id
func DeleteTeam(c *fiber.Ctx) error {
	team, userID, err := loadTeamAsLead(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := teamService.DeleteTeam(c.UserContext(), team.ID); err != nil {
		return respondError(c, err)
	}

	log.Printf("🗑️ Team %s deleted by %s", team.ID, userID)
	eventHub.PublishTeam(team.ID, services.EventTeamDeleted, userID)
	return utils.JSONSuccess(c, fiber.Map{"message": "Team deleted successfully"})
}

// ================== MEMBER MANAGEMENT ==================

// AddMember adds a member directly (lead only)
// POST /api/teams/:id/members
func AddMember(c *fiber.Ctx) error {
	team, userID, err := loadTeamAsLead(c)
	if err != nil {
		return respondError(c, err)
	}

	var member models.TeamMember
	if err := c.BodyParser(&member); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}

	if err := teamService.AddTeamMember(c.UserContext(), team.ID, member); err != nil {
		return respondError(c, err)
	}

	eventHub.PublishTeam(team.ID, services.EventMemberAdded, member.ID)
	log.Printf("✅ %s added %s to team %s", userID, member.ID, team.ID)
	return utils.JSONStatus(c, fiber.StatusCreated, fiber.Map{"message": "Member added"})
}

// RemoveMember removes a member. The lead may remove anyone; members may
// remove themselves to leave the team.
// DELETE /api/teams/:id/members/:memberId
func RemoveMember(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	team, err := loadTeam(c)
	if err != nil {
		return respondError(c, err)
	}

	memberID := c.Params("memberId")
	if memberID != userID && !isLead(team, userID) {
		return utils.JSONError(c, fiber.StatusForbidden, "Only the team lead can remove other members")
	}

	if err := teamService.RemoveTeamMember(c.UserContext(), team.ID, memberID); err != nil {
		return respondError(c, err)
	}

	if memberID != userID {
		notificationService.Notify(c.UserContext(), services.MemberRemovedNotification(team, memberID, userID))
	}
	eventHub.PublishTeam(team.ID, services.EventMemberRemoved, memberID)
	return utils.JSONSuccess(c, fiber.Map{"message": "Member removed"})
}

// CheckMembership reports the caller's team and request status
// GET /api/teams/:id/membership
func CheckMembership(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	team, err := loadTeam(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	inAnyTeam, err := teamService.IsUserInAnyTeam(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}
	pending, err := teamService.PendingRequestFor(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{
		"isMember":          team.HasMember(userID),
		"isLead":            isLead(team, userID),
		"inAnyTeam":         inAnyTeam,
		"hasPendingRequest": pending != nil,
		"requestedThisTeam": team.HasJoinRequest(userID),
	}
	if pending != nil {
		resp["pendingTeamId"] = pending.TeamID
		resp["requestedAt"] = pending.RequestedAt.Format(time.RFC3339)
	}
	return utils.JSONSuccess(c, resp)
}

// excludeTeams returns the teams in all that are not in mine, keeping order.
func excludeTeams(all, mine []models.Team) []models.Team {
	own := make(map[string]struct{}, len(mine))
	for _, t := range mine {
		own[t.ID] = struct{}{}
	}

	out := make([]models.Team, 0, len(all))
	for _, t := range all {
		if _, ok := own[t.ID]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}
