// services/team_service.go - Team repository, membership and join requests
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hackmate/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TeamService owns every read and write of the teams table and of the
// user_teams / pending_join_requests pointer tables that mirror it.
type TeamService struct {
	db           *gorm.DB
	hackathons   HackathonLookup
	codeAttempts int
	newCode      func() (string, error)
}

// NewTeamService returns a service backed by db. hackathons may be nil, in
// which case hackathon ids are stored but never resolved.
func NewTeamService(db *gorm.DB, hackathons HackathonLookup) *TeamService {
	return &TeamService{
		db:           db,
		hackathons:   hackathons,
		codeAttempts: DefaultCodeAttempts,
		newCode:      generateTeamCode,
	}
}

// SetCodeAttempts overrides how many codes CreateTeam draws before failing.
func (s *TeamService) SetCodeAttempts(n int) {
	if n > 0 {
		s.codeAttempts = n
	}
}

// CreateTeamInput carries the fields accepted by CreateTeam.
type CreateTeamInput struct {
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	RequiredSkills []string            `json:"requiredSkills"`
	MaxMembers     int                 `json:"maxMembers"`
	HackathonID    string              `json:"hackathonId"`
	HackathonName  string              `json:"hackathonName"`
	CreatedBy      string              `json:"createdBy"`
	Members        []models.TeamMember `json:"members"`
}

// TeamPatch lists the fields UpdateTeam may change. Nil fields are left alone.
type TeamPatch struct {
	Name               *string    `json:"name"`
	Description        *string    `json:"description"`
	RequiredSkills     *[]string  `json:"requiredSkills"`
	MaxMembers         *int       `json:"maxMembers"`
	HackathonID        *string    `json:"hackathonId"`
	HackathonName      *string    `json:"hackathonName"`
	HackathonStartDate *time.Time `json:"hackathonStartDate"`
	HackathonEndDate   *time.Time `json:"hackathonEndDate"`
}

// ================== TEAM CRUD OPERATIONS ==================

// CreateTeam validates input, allocates a unique team code and stores the
// team with its creator as Team Lead. The creator and any other initial
// member must not already belong to a team.
func (s *TeamService) CreateTeam(ctx context.Context, in CreateTeamInput) (*models.Team, error) {
	skills := cleanSkills(in.RequiredSkills)

	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, missing("name")
	case strings.TrimSpace(in.Description) == "":
		return nil, missing("description")
	case strings.TrimSpace(in.CreatedBy) == "":
		return nil, missing("createdBy")
	case len(skills) == 0:
		return nil, missing("requiredSkills")
	}

	team := &models.Team{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(in.Name),
		Description:    strings.TrimSpace(in.Description),
		HackathonName:  strings.TrimSpace(in.HackathonName),
		RequiredSkills: skills,
		MaxMembers:     in.MaxMembers,
		Members:        initialMembers(in.CreatedBy, in.Members),
		CreatedBy:      in.CreatedBy,
	}

	if id := strings.TrimSpace(in.HackathonID); id != "" {
		team.HackathonID = &id
		if s.hackathons != nil {
			h, err := s.hackathons.GetHackathonByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if h != nil {
				applyHackathon(team, h)
			}
		}
	}
	if team.HackathonID == nil && team.HackathonName == "" {
		return nil, missing("hackathonName")
	}
	if team.MaxMembers < len(team.Members) || team.MaxMembers < 1 {
		return nil, &ValidationError{
			Field:   "maxMembers",
			Message: "maxMembers must be at least the number of initial members",
		}
	}
	team.Normalize()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range team.Members {
			inTeam, err := userHasTeam(tx, m.ID)
			if err != nil {
				return err
			}
			if inTeam {
				return ErrAlreadyInTeam
			}
		}

		code, err := s.allocateTeamCode(tx)
		if err != nil {
			return err
		}
		team.TeamCode = code

		if err := tx.Create(team).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCodeGeneration
			}
			return err
		}

		for _, m := range team.Members {
			if err := claimUserTeam(tx, m.ID, team.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return team, nil
}

// GetTeam returns the team with the given id, or nil if there is none.
func (s *TeamService) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	return s.findTeam(ctx, "id = ?", id)
}

// GetTeamByCode returns the team holding code, or nil if there is none.
func (s *TeamService) GetTeamByCode(ctx context.Context, code string) (*models.Team, error) {
	code = NormalizeTeamCode(code)
	if code == "" {
		return nil, nil
	}
	return s.findTeam(ctx, "team_code = ?", code)
}

func (s *TeamService) findTeam(ctx context.Context, query string, arg interface{}) (*models.Team, error) {
	var team models.Team
	err := s.db.WithContext(ctx).Where(query, arg).Take(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	team.Normalize()
	if err := s.fillHackathonDates(ctx, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// GetUserTeams retrieves all teams the user is a member of.
func (s *TeamService) GetUserTeams(ctx context.Context, userID string) ([]models.Team, error) {
	var teams []models.Team

	err := s.db.WithContext(ctx).
		Joins("JOIN user_teams ON user_teams.team_id = teams.id").
		Where("user_teams.user_id = ?", userID).
		Order("teams.created_at DESC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}

	normalizeAll(teams)
	return teams, nil
}

// GetAvailableTeams returns every team with a free seat, newest first. The
// caller's own teams are not excluded here.
func (s *TeamService) GetAvailableTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team

	err := s.db.WithContext(ctx).
		Where("member_count < max_members").
		Order("created_at DESC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}

	normalizeAll(teams)
	return teams, nil
}

// UpdateTeam writes only the fields set in patch.
func (s *TeamService) UpdateTeam(ctx context.Context, id string, patch TeamPatch) error {
	updates, err := patch.updates()
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Team{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrTeamNotFound
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Team{}).Where("id = ?", id).Updates(updates).Error
	})
}

// DeleteTeam hard-deletes the team together with its pointer rows. Deleting a
// team that does not exist is not an error.
func (s *TeamService) DeleteTeam(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&models.PendingJoinRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.UserTeam{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Team{}).Error
	})
}

// ================== HELPER FUNCTIONS ==================

func (p TeamPatch) updates() (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, missing("name")
		}
		updates["name"] = name
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if desc == "" {
			return nil, missing("description")
		}
		updates["description"] = desc
	}
	if p.RequiredSkills != nil {
		skills := cleanSkills(*p.RequiredSkills)
		if len(skills) == 0 {
			return nil, missing("requiredSkills")
		}
		updates["required_skills"] = skills
	}
	if p.MaxMembers != nil {
		updates["max_members"] = *p.MaxMembers
	}
	if p.HackathonID != nil {
		updates["hackathon_id"] = *p.HackathonID
	}
	if p.HackathonName != nil {
		updates["hackathon_name"] = *p.HackathonName
	}
	if p.HackathonStartDate != nil {
		updates["hackathon_start_date"] = *p.HackathonStartDate
	}
	if p.HackathonEndDate != nil {
		updates["hackathon_end_date"] = *p.HackathonEndDate
	}

	return updates, nil
}

// fillHackathonDates copies start/end dates from the hackathon into team when
// they were never stored. Only the returned value changes.
func (s *TeamService) fillHackathonDates(ctx context.Context, team *models.Team) error {
	if s.hackathons == nil || team.HackathonID == nil || *team.HackathonID == "" {
		return nil
	}
	if team.HackathonStartDate != nil && team.HackathonEndDate != nil {
		return nil
	}

	h, err := s.hackathons.GetHackathonByID(ctx, *team.HackathonID)
	if err != nil {
		return fmt.Errorf("hackathon lookup: %w", err)
	}
	if h != nil {
		applyHackathon(team, h)
	}
	return nil
}

func applyHackathon(team *models.Team, h *models.Hackathon) {
	start, end := h.StartDate, h.EndDate
	if team.HackathonStartDate == nil && !start.IsZero() {
		team.HackathonStartDate = &start
	}
	if team.HackathonEndDate == nil && !end.IsZero() {
		team.HackathonEndDate = &end
	}
	if team.HackathonName == "" {
		team.HackathonName = h.Name
	}
}

// initialMembers puts the creator first as the only Team Lead and drops
// duplicate or anonymous entries.
func initialMembers(creatorID string, members []models.TeamMember) datatypes.JSONSlice[models.TeamMember] {
	creator := models.TeamMember{ID: creatorID}
	rest := make([]models.TeamMember, 0, len(members))
	seen := map[string]bool{creatorID: true}

	for _, m := range members {
		if m.ID == creatorID {
			creator = m
			continue
		}
		if m.ID == "" || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		if m.Role == "" || m.Role == models.RoleTeamLead {
			m.Role = models.RoleMember
		}
		rest = append(rest, m)
	}

	creator.Role = models.RoleTeamLead
	return append(datatypes.JSONSlice[models.TeamMember]{creator}, rest...)
}

func cleanSkills(skills []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	for _, skill := range skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			out = append(out, skill)
		}
	}
	return out
}

func normalizeAll(teams []models.Team) {
	for i := range teams {
		teams[i].Normalize()
	}
}

// lockTeam loads the team row for update. It returns nil if the row does not
// exist. sqlite ignores the locking clause; its single writer serializes
// transactions instead.
func lockTeam(tx *gorm.DB, teamID string) (*models.Team, error) {
	var team models.Team
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", teamID).Take(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	team.Normalize()
	return &team, nil
}

// saveTeamLists writes back the members and joinRequests columns of team.
func saveTeamLists(tx *gorm.DB, team *models.Team) error {
	return tx.Model(&models.Team{}).Where("id = ?", team.ID).Updates(map[string]interface{}{
		"members":       team.Members,
		"member_count":  len(team.Members),
		"join_requests": team.JoinRequests,
	}).Error
}
