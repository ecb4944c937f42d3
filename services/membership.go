package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"hackmate/models"

	"gorm.io/gorm"
)

// ================== TEAM MEMBERSHIP OPERATIONS ==================

// AddTeamMember appends member to the team. The capacity and duplicate checks
// run against the locked team row, so concurrent adds cannot overfill it.
func (s *TeamService) AddTeamMember(ctx context.Context, teamID string, member models.TeamMember) error {
	if strings.TrimSpace(member.ID) == "" {
		return missing("member.id")
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := lockTeam(tx, teamID)
		if err != nil {
			return err
		}
		if team == nil {
			return ErrTeamNotFound
		}
		if team.HasMember(member.ID) {
			return ErrDuplicateMember
		}
		if team.IsFull() {
			return ErrTeamFull
		}

		if err := claimUserTeam(tx, member.ID, team.ID); err != nil {
			return err
		}

		team.AppendMember(member)
		if team.RemoveJoinRequest(member.ID) {
			if err := dropPendingRequest(tx, team.ID, member.ID); err != nil {
				return err
			}
		}
		return saveTeamLists(tx, team)
	})
}

// RemoveTeamMember removes the member with memberID. A missing team or member
// is a no-op.
func (s *TeamService) RemoveTeamMember(ctx context.Context, teamID, memberID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := lockTeam(tx, teamID)
		if err != nil || team == nil {
			return err
		}
		if !team.DropMember(memberID) {
			return nil
		}

		if err := saveTeamLists(tx, team); err != nil {
			return err
		}
		return tx.Where("user_id = ? AND team_id = ?", memberID, team.ID).Delete(&models.UserTeam{}).Error
	})
}

// IsUserInAnyTeam reports whether the user belongs to some team.
func (s *TeamService) IsUserInAnyTeam(ctx context.Context, userID string) (bool, error) {
	return userHasTeam(s.db.WithContext(ctx), userID)
}

// CurrentTeamID returns the id of the user's team, or "" if they have none.
func (s *TeamService) CurrentTeamID(ctx context.Context, userID string) (string, error) {
	var ut models.UserTeam
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&ut).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return ut.TeamID, nil
}

func userHasTeam(db *gorm.DB, userID string) (bool, error) {
	var count int64
	if err := db.Model(&models.UserTeam{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// claimUserTeam records that userID now belongs to teamID. The primary key on
// user_teams.user_id turns a lost race into ErrAlreadyInTeam.
func claimUserTeam(tx *gorm.DB, userID, teamID string) error {
	inTeam, err := userHasTeam(tx, userID)
	if err != nil {
		return err
	}
	if inTeam {
		return ErrAlreadyInTeam
	}

	err = tx.Create(&models.UserTeam{UserID: userID, TeamID: teamID, JoinedAt: time.Now().UTC()}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyInTeam
	}
	if err != nil {
		return err
	}
	return releaseOtherRequest(tx, userID, teamID)
}

// releaseOtherRequest withdraws a request userID left open on a team other
// than teamID. Requests on teamID are cleared by the caller, which already
// holds that row.
func releaseOtherRequest(tx *gorm.DB, userID, teamID string) error {
	var pending models.PendingJoinRequest
	err := tx.Where("user_id = ?", userID).Limit(1).Find(&pending).Error
	if err != nil || pending.UserID == "" || pending.TeamID == teamID {
		return err
	}

	other, err := lockTeam(tx, pending.TeamID)
	if err != nil {
		return err
	}
	if other != nil && other.RemoveJoinRequest(userID) {
		if err := saveTeamLists(tx, other); err != nil {
			return err
		}
	}
	return dropPendingRequest(tx, pending.TeamID, userID)
}
