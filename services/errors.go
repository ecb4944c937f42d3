// services/errors.go - Team workflow errors
package services

import "errors"

// Conflict and lookup failures. Messages are shown to users verbatim.
var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrAlreadyInTeam    = errors.New("user is already a member of a team")
	ErrAlreadyRequested = errors.New("user has already requested to join a team")
	ErrDuplicateMember  = errors.New("member already exists in this team")
	ErrAlreadyMember    = errors.New("user is already a member of this team")
	ErrTeamFull         = errors.New("team is full")
	ErrCodeGeneration   = errors.New("failed to generate a unique team code")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Field + " is required"
}

func missing(field string) error {
	return &ValidationError{Field: field}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConflict reports whether err is one of the membership conflicts.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyInTeam) ||
		errors.Is(err, ErrAlreadyRequested) ||
		errors.Is(err, ErrDuplicateMember) ||
		errors.Is(err, ErrAlreadyMember) ||
		errors.Is(err, ErrTeamFull)
}
