package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hackmate/models"
	"hackmate/testutil"

	"gorm.io/gorm"
)

func newTestTeamService(t *testing.T) (*TeamService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewTeamService(db, NewHackathonService(db)), db
}

func validInput(creator string) CreateTeamInput {
	return CreateTeamInput{
		Name:           "Night Owls",
		Description:    "We ship at 3am",
		RequiredSkills: []string{"Go", "React"},
		MaxMembers:     4,
		HackathonName:  "Spring Hack",
		CreatedBy:      creator,
		Members: []models.TeamMember{
			{ID: creator, Name: "Creator", Role: models.RoleTeamLead},
		},
	}
}

func createTestTeam(t *testing.T, svc *TeamService, creator string, maxMembers int) *models.Team {
	t.Helper()
	in := validInput(creator)
	in.MaxMembers = maxMembers
	team, err := svc.CreateTeam(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateTeam(%s): %v", creator, err)
	}
	return team
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestCreateTeam_RoundTrip(t *testing.T) {
	svc, _ := newTestTeamService(t)
	ctx := context.Background()

	created := createTestTeam(t, svc, "alice", 4)
	if created.ID == "" {
		t.Fatal("expected server-assigned id")
	}
	if len(created.TeamCode) != TeamCodeLength {
		t.Fatalf("TeamCode = %q, want %d chars", created.TeamCode, TeamCodeLength)
	}

	got, err := svc.GetTeam(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if got == nil {
		t.Fatal("GetTeam returned nil for existing team")
	}

	if got.Name != "Night Owls" || got.Description != "We ship at 3am" || got.HackathonName != "Spring Hack" {
		t.Errorf("unexpected fields: %+v", got)
	}
	if got.MaxMembers != 4 || got.CreatedBy != "alice" || got.TeamCode != created.TeamCode {
		t.Errorf("unexpected fields: %+v", got)
	}
	if len(got.RequiredSkills) != 2 || got.RequiredSkills[0] != "Go" {
		t.Errorf("RequiredSkills = %v", got.RequiredSkills)
	}
	if got.JoinRequests == nil || len(got.JoinRequests) != 0 {
		t.Errorf("JoinRequests = %#v, want empty list", got.JoinRequests)
	}
	if len(got.Members) != 1 {
		t.Fatalf("Members = %v, want creator only", got.Members)
	}

	lead := got.Members[0]
	if lead.ID != "alice" || lead.Role != models.RoleTeamLead {
		t.Errorf("creator member = %+v", lead)
	}
	if lead.Skills == nil || len(lead.Skills) != 0 {
		t.Errorf("creator skills = %#v, want []", lead.Skills)
	}
	if lead.Avatar != "" {
		t.Errorf("creator avatar = %q, want omitted", lead.Avatar)
	}
}

func TestCreateTeam_Validation(t *testing.T) {
	svc, db := newTestTeamService(t)

	cases := []struct {
		field  string
		mutate func(*CreateTeamInput)
	}{
		{"name", func(in *CreateTeamInput) { in.Name = "  " }},
		{"description", func(in *CreateTeamInput) { in.Description = "" }},
		{"createdBy", func(in *CreateTeamInput) { in.CreatedBy = "" }},
		{"requiredSkills", func(in *CreateTeamInput) { in.RequiredSkills = []string{} }},
		{"requiredSkills", func(in *CreateTeamInput) { in.RequiredSkills = []string{" ", ""} }},
		{"hackathonName", func(in *CreateTeamInput) { in.HackathonName = "" }},
		{"maxMembers", func(in *CreateTeamInput) { in.MaxMembers = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			in := validInput("alice")
			tc.mutate(&in)

			_, err := svc.CreateTeam(context.Background(), in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Errorf("Field = %q, want %q", verr.Field, tc.field)
			}
		})
	}

	if n := countRows(t, db, &models.Team{}); n != 0 {
		t.Errorf("%d teams written by invalid creates, want 0", n)
	}
}

func TestCreateTeam_MissingFieldMessage(t *testing.T) {
	svc, _ := newTestTeamService(t)
	in := validInput("alice")
	in.RequiredSkills = nil

	_, err := svc.CreateTeam(context.Background(), in)
	if err == nil || err.Error() != "requiredSkills is required" {
		t.Fatalf("err = %v, want %q", err, "requiredSkills is required")
	}
}

func TestCreateTeam_CreatorAlreadyInTeam(t *testing.T) {
	svc, db := newTestTeamService(t)
	createTestTeam(t, svc, "alice", 4)

	_, err := svc.CreateTeam(context.Background(), validInput("alice"))
	if !errors.Is(err, ErrAlreadyInTeam) {
		t.Fatalf("err = %v, want ErrAlreadyInTeam", err)
	}
	if n := countRows(t, db, &models.Team{}); n != 1 {
		t.Errorf("teams = %d, want 1", n)
	}
}

// TestConcurrentCreateTeam verifies that a user creating several teams at
// once ends up leading exactly one.
func TestConcurrentCreateTeam(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()

	numGoroutines := 5
	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateTeam(ctx, validInput("alice"))
			if err == nil {
				successCount.Add(1)
			} else if !errors.Is(err, ErrAlreadyInTeam) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 successful create, got %d", successCount.Load())
	}
	if n := countRows(t, db, &models.Team{}); n != 1 {
		t.Errorf("teams stored = %d, want 1", n)
	}
	if n := countRows(t, db, &models.UserTeam{}); n != 1 {
		t.Errorf("user_teams rows = %d, want 1", n)
	}
}

func TestCreateTeam_InitialMembers(t *testing.T) {
	svc, _ := newTestTeamService(t)

	in := validInput("alice")
	in.Members = []models.TeamMember{
		{ID: "bob", Name: "Bob", Role: models.RoleTeamLead},
		{ID: "alice", Name: "Alice", Role: models.RoleMember},
		{ID: "bob", Name: "Bob again"},
		{ID: "", Name: "nobody"},
	}

	team, err := svc.CreateTeam(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if len(team.Members) != 2 {
		t.Fatalf("Members = %+v, want alice and bob", team.Members)
	}
	if team.Members[0].ID != "alice" || team.Members[0].Role != models.RoleTeamLead || team.Members[0].Name != "Alice" {
		t.Errorf("first member = %+v, want alice as Team Lead", team.Members[0])
	}
	if team.Members[1].ID != "bob" || team.Members[1].Role != models.RoleMember {
		t.Errorf("second member = %+v, want bob as Member", team.Members[1])
	}

	inTeam, err := svc.IsUserInAnyTeam(context.Background(), "bob")
	if err != nil || !inTeam {
		t.Errorf("IsUserInAnyTeam(bob) = %v, %v; want true", inTeam, err)
	}
}

func TestCreateTeam_CodesAreUnique(t *testing.T) {
	svc, _ := newTestTeamService(t)

	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		team := createTestTeam(t, svc, fmt.Sprintf("user-%d", i), 4)
		if seen[team.TeamCode] {
			t.Fatalf("duplicate team code %s", team.TeamCode)
		}
		seen[team.TeamCode] = true

		for _, ch := range team.TeamCode {
			if !(ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9') {
				t.Fatalf("code %s has invalid character %q", team.TeamCode, ch)
			}
		}
	}
}

func TestCreateTeam_CodeGenerationExhausted(t *testing.T) {
	svc, db := newTestTeamService(t)
	svc.newCode = func() (string, error) { return "SAME01", nil }

	first := createTestTeam(t, svc, "alice", 4)
	if first.TeamCode != "SAME01" {
		t.Fatalf("TeamCode = %s, want SAME01", first.TeamCode)
	}

	draws := 0
	svc.newCode = func() (string, error) {
		draws++
		return "SAME01", nil
	}

	_, err := svc.CreateTeam(context.Background(), validInput("bob"))
	if !errors.Is(err, ErrCodeGeneration) {
		t.Fatalf("err = %v, want ErrCodeGeneration", err)
	}
	if draws != DefaultCodeAttempts {
		t.Errorf("drew %d codes, want %d", draws, DefaultCodeAttempts)
	}
	if n := countRows(t, db, &models.UserTeam{}); n != 1 {
		t.Errorf("user_teams rows = %d, want 1 (failed create must not claim bob)", n)
	}
}

func TestCreateTeam_CodeRetrySucceeds(t *testing.T) {
	svc, _ := newTestTeamService(t)
	svc.newCode = func() (string, error) { return "TAKEN1", nil }
	createTestTeam(t, svc, "alice", 4)

	codes := []string{"TAKEN1", "TAKEN1", "FRESH2"}
	svc.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	team := createTestTeam(t, svc, "bob", 4)
	if team.TeamCode != "FRESH2" {
		t.Errorf("TeamCode = %s, want FRESH2", team.TeamCode)
	}
}

func TestSetCodeAttempts(t *testing.T) {
	svc, _ := newTestTeamService(t)
	svc.newCode = func() (string, error) { return "SAME01", nil }
	createTestTeam(t, svc, "alice", 4)

	svc.SetCodeAttempts(2)
	svc.SetCodeAttempts(0) // ignored

	draws := 0
	svc.newCode = func() (string, error) {
		draws++
		return "SAME01", nil
	}
	if _, err := svc.CreateTeam(context.Background(), validInput("bob")); !errors.Is(err, ErrCodeGeneration) {
		t.Fatalf("err = %v, want ErrCodeGeneration", err)
	}
	if draws != 2 {
		t.Errorf("drew %d codes, want 2", draws)
	}
}

func TestGetTeam_NotFound(t *testing.T) {
	svc, _ := newTestTeamService(t)

	team, err := svc.GetTeam(context.Background(), "missing")
	if err != nil || team != nil {
		t.Errorf("GetTeam(missing) = %v, %v; want nil, nil", team, err)
	}
}

func TestGetTeamByCode(t *testing.T) {
	svc, _ := newTestTeamService(t)
	ctx := context.Background()
	svc.newCode = func() (string, error) { return "AB12CD", nil }
	created := createTestTeam(t, svc, "alice", 4)

	got, err := svc.GetTeamByCode(ctx, "  ab12cd ")
	if err != nil {
		t.Fatalf("GetTeamByCode: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("GetTeamByCode = %+v, want team %s", got, created.ID)
	}

	missing, err := svc.GetTeamByCode(ctx, "ABCDEF")
	if err != nil || missing != nil {
		t.Errorf("GetTeamByCode(ABCDEF) = %v, %v; want nil, nil", missing, err)
	}

	empty, err := svc.GetTeamByCode(ctx, "   ")
	if err != nil || empty != nil {
		t.Errorf("GetTeamByCode(blank) = %v, %v; want nil, nil", empty, err)
	}
}

func TestCreateTeam_ResolvesHackathon(t *testing.T) {
	svc, db := newTestTeamService(t)
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	testutil.CreateTestHackathon(t, db, "hack-1", "Spring Hack", start)

	in := validInput("alice")
	in.HackathonID = "hack-1"
	in.HackathonName = ""

	team, err := svc.CreateTeam(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if team.HackathonName != "Spring Hack" {
		t.Errorf("HackathonName = %q, want filled from hackathon", team.HackathonName)
	}
	if team.HackathonStartDate == nil || !team.HackathonStartDate.Equal(start) {
		t.Errorf("HackathonStartDate = %v, want %v", team.HackathonStartDate, start)
	}
	if team.HackathonEndDate == nil || !team.HackathonEndDate.Equal(start.Add(48*time.Hour)) {
		t.Errorf("HackathonEndDate = %v", team.HackathonEndDate)
	}
}

func TestCreateTeam_HackathonIDWithoutName(t *testing.T) {
	svc, _ := newTestTeamService(t)

	in := validInput("alice")
	in.HackathonID = "hk-unknown"
	in.HackathonName = ""

	team, err := svc.CreateTeam(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if team.HackathonID == nil || *team.HackathonID != "hk-unknown" {
		t.Errorf("HackathonID = %v, want hk-unknown", team.HackathonID)
	}
	if team.HackathonName != "" || team.HackathonStartDate != nil {
		t.Errorf("unresolved hackathon filled name=%q start=%v", team.HackathonName, team.HackathonStartDate)
	}

	// Without a lookup the id alone still satisfies validation.
	plain := NewTeamService(testutil.SetupTestDB(t), nil)
	if _, err := plain.CreateTeam(context.Background(), in); err != nil {
		t.Errorf("CreateTeam without lookup: %v", err)
	}
}

func TestGetTeam_BackfillsHackathonDates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	// Created before the hackathon existed, so no dates were stored.
	plain := NewTeamService(db, nil)
	in := validInput("alice")
	in.HackathonID = "hack-late"
	created, err := plain.CreateTeam(ctx, in)
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if created.HackathonStartDate != nil {
		t.Fatal("expected no stored start date")
	}

	start := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	testutil.CreateTestHackathon(t, db, "hack-late", "Late Hack", start)

	svc := NewTeamService(db, NewHackathonService(db))
	got, err := svc.GetTeam(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if got.HackathonStartDate == nil || !got.HackathonStartDate.Equal(start) {
		t.Errorf("HackathonStartDate = %v, want %v", got.HackathonStartDate, start)
	}
	if got.HackathonName != "Spring Hack" {
		t.Errorf("HackathonName = %q, stored name must win", got.HackathonName)
	}

	var stored models.Team
	if err := db.Where("id = ?", created.ID).Take(&stored).Error; err != nil {
		t.Fatalf("load stored team: %v", err)
	}
	if stored.HackathonStartDate != nil || stored.HackathonEndDate != nil {
		t.Error("backfill must not change storage")
	}
}

func TestGetUserTeams(t *testing.T) {
	svc, _ := newTestTeamService(t)
	ctx := context.Background()

	team := createTestTeam(t, svc, "alice", 4)
	createTestTeam(t, svc, "carol", 4)
	if err := svc.AddTeamMember(ctx, team.ID, models.TeamMember{ID: "bob", Name: "Bob"}); err != nil {
		t.Fatalf("AddTeamMember: %v", err)
	}

	for _, user := range []string{"alice", "bob"} {
		teams, err := svc.GetUserTeams(ctx, user)
		if err != nil {
			t.Fatalf("GetUserTeams(%s): %v", user, err)
		}
		if len(teams) != 1 || teams[0].ID != team.ID {
			t.Errorf("GetUserTeams(%s) = %v, want [%s]", user, teams, team.ID)
		}
	}

	none, err := svc.GetUserTeams(ctx, "dave")
	if err != nil || len(none) != 0 {
		t.Errorf("GetUserTeams(dave) = %v, %v; want empty", none, err)
	}
}

func TestGetAvailableTeams(t *testing.T) {
	svc, _ := newTestTeamService(t)
	ctx := context.Background()

	full := createTestTeam(t, svc, "alice", 2)
	open := createTestTeam(t, svc, "carol", 3)
	if err := svc.AddTeamMember(ctx, full.ID, models.TeamMember{ID: "bob"}); err != nil {
		t.Fatalf("AddTeamMember: %v", err)
	}

	teams, err := svc.GetAvailableTeams(ctx)
	if err != nil {
		t.Fatalf("GetAvailableTeams: %v", err)
	}
	if len(teams) != 1 || teams[0].ID != open.ID {
		t.Fatalf("GetAvailableTeams = %v, want only %s", teams, open.ID)
	}

	// Leaving frees a seat again.
	if err := svc.RemoveTeamMember(ctx, full.ID, "bob"); err != nil {
		t.Fatalf("RemoveTeamMember: %v", err)
	}
	teams, err = svc.GetAvailableTeams(ctx)
	if err != nil {
		t.Fatalf("GetAvailableTeams: %v", err)
	}
	if len(teams) != 2 {
		t.Errorf("GetAvailableTeams returned %d teams, want 2", len(teams))
	}
}

func TestUpdateTeam_SparsePatch(t *testing.T) {
	svc, _ := newTestTeamService(t)
	ctx := context.Background()
	team := createTestTeam(t, svc, "alice", 4)

	name := "Early Birds"
	if err := svc.UpdateTeam(ctx, team.ID, TeamPatch{Name: &name}); err != nil {
		t.Fatalf("UpdateTeam: %v", err)
	}

	got, err := svc.GetTeam(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if got.Name != "Early Birds" {
		t.Errorf("Name = %q, want Early Birds", got.Name)
	}
	if got.Description != team.Description || got.MaxMembers != team.MaxMembers || len(got.RequiredSkills) != 2 {
		t.Errorf("unpatched fields changed: %+v", got)
	}
	if len(got.Members) != 1 {
		t.Errorf("members changed: %v", got.Members)
	}

	skills := []string{"Rust"}
	maxMembers := 6
	if err := svc.UpdateTeam(ctx, team.ID, TeamPatch{RequiredSkills: &skills, MaxMembers: &maxMembers}); err != nil {
		t.Fatalf("UpdateTeam: %v", err)
	}
	got, _ = svc.GetTeam(ctx, team.ID)
	if got.MaxMembers != 6 || len(got.RequiredSkills) != 1 || got.RequiredSkills[0] != "Rust" {
		t.Errorf("after second patch: %+v", got)
	}
	if got.Name != "Early Birds" {
		t.Errorf("Name = %q, earlier patch lost", got.Name)
	}
}

func TestUpdateTeam_Errors(t *testing.T) {
	svc, _ := newTestTeamService(t)
	ctx := context.Background()
	team := createTestTeam(t, svc, "alice", 4)

	if err := svc.UpdateTeam(ctx, "missing", TeamPatch{}); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("UpdateTeam(missing) = %v, want ErrTeamNotFound", err)
	}
	if err := svc.UpdateTeam(ctx, team.ID, TeamPatch{}); err != nil {
		t.Errorf("empty patch = %v, want nil", err)
	}

	blank := "  "
	if err := svc.UpdateTeam(ctx, team.ID, TeamPatch{Name: &blank}); !IsValidation(err) {
		t.Errorf("blank name = %v, want validation error", err)
	}
	noSkills := []string{}
	if err := svc.UpdateTeam(ctx, team.ID, TeamPatch{RequiredSkills: &noSkills}); !IsValidation(err) {
		t.Errorf("empty skills = %v, want validation error", err)
	}
}

func TestDeleteTeam(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	team := createTestTeam(t, svc, "alice", 4)

	if err := svc.AddJoinRequest(ctx, team.ID, "bob"); err != nil {
		t.Fatalf("AddJoinRequest: %v", err)
	}

	if err := svc.DeleteTeam(ctx, team.ID); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}
	got, err := svc.GetTeam(ctx, team.ID)
	if err != nil || got != nil {
		t.Fatalf("GetTeam after delete = %v, %v; want nil", got, err)
	}

	if n := countRows(t, db, &models.UserTeam{}); n != 0 {
		t.Errorf("user_teams rows = %d, want 0", n)
	}
	if n := countRows(t, db, &models.PendingJoinRequest{}); n != 0 {
		t.Errorf("pending_join_requests rows = %d, want 0", n)
	}

	// Former members are free to start over.
	createTestTeam(t, svc, "alice", 4)

	if err := svc.DeleteTeam(ctx, "missing"); err != nil {
		t.Errorf("DeleteTeam(missing) = %v, want nil", err)
	}
}
