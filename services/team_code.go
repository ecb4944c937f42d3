package services

import (
	"crypto/rand"
	"math/big"
	"strings"

	"hackmate/models"

	"gorm.io/gorm"
)

const (
	TeamCodeLength      = 6
	DefaultCodeAttempts = 5
	teamCodeCharset     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// generateTeamCode returns a random code of TeamCodeLength characters drawn
// uniformly from A-Z and 0-9.
func generateTeamCode() (string, error) {
	max := big.NewInt(int64(len(teamCodeCharset)))
	code := make([]byte, TeamCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = teamCodeCharset[n.Int64()]
	}
	return string(code), nil
}

// NormalizeTeamCode upper-cases and trims user input before lookup.
func NormalizeTeamCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// allocateTeamCode draws codes until one is unused, giving up after
// s.codeAttempts draws.
func (s *TeamService) allocateTeamCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := tx.Model(&models.Team{}).Where("team_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrCodeGeneration
}
