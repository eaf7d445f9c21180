package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validApplication() SubmitApplicationRequest {
	return SubmitApplicationRequest{
		FullName:   "  Ada Lovelace ",
		Email:      " Ada@Example.COM ",
		Motivation: "I want to keep myself accountable every week.",
		Commitment: "Weekly calls",
	}
}

func TestSubmitApplicationRequest_Validate(t *testing.T) {
	req := validApplication()
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ada Lovelace", req.FullName)
	assert.Equal(t, "ada@example.com", req.Email)

	app := req.ToApplication()
	assert.Equal(t, ApplicationPending, app.Status)
	assert.Nil(t, app.Phone)
}

func TestSubmitApplicationRequest_Rejects(t *testing.T) {
	cases := map[string]func(r *SubmitApplicationRequest){
		"short name":       func(r *SubmitApplicationRequest) { r.FullName = "A" },
		"bad email":        func(r *SubmitApplicationRequest) { r.Email = "not-an-email" },
		"short motivation": func(r *SubmitApplicationRequest) { r.Motivation = "too short" },
		"long motivation":  func(r *SubmitApplicationRequest) { r.Motivation = strings.Repeat("x", 2001) },
		"no commitment":    func(r *SubmitApplicationRequest) { r.Commitment = "  " },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validApplication()
			mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestReviewApplicationRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ReviewApplicationRequest{Status: ApplicationWaitlisted}).Validate())
	assert.Error(t, (&ReviewApplicationRequest{Status: "archived"}).Validate())
}

func TestApplicationFilter_Normalize(t *testing.T) {
	f := ApplicationFilter{Limit: 1000, Offset: -5}
	require.NoError(t, f.Normalize())
	assert.Equal(t, 200, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = ApplicationFilter{}
	require.NoError(t, f.Normalize())
	assert.Equal(t, 50, f.Limit)

	f = ApplicationFilter{Status: "bogus"}
	assert.Error(t, f.Normalize())
}

func TestCreateGroupRequest_DefaultsCapacity(t *testing.T) {
	req := CreateGroupRequest{Name: "Morning Crew"}
	require.NoError(t, req.Validate())
	assert.Equal(t, DefaultGroupCapacity, req.Capacity)

	req = CreateGroupRequest{Name: "Tiny", Capacity: 1}
	assert.Error(t, req.Validate())

	req = CreateGroupRequest{Name: "Huge", Capacity: 51}
	assert.Error(t, req.Validate())
}

func TestUpdateGoalRequest_Apply(t *testing.T) {
	desc := "old"
	goal := &Goal{Title: "Run", Description: &desc, Status: GoalActive}

	empty := ""
	status := GoalCompleted
	req := UpdateGoalRequest{Description: &empty, Status: &status}
	require.NoError(t, req.Validate())
	req.Apply(goal)

	assert.Equal(t, "Run", goal.Title)
	assert.Nil(t, goal.Description)
	assert.Equal(t, GoalCompleted, goal.Status)
}

func TestUpdateGoalRequest_RejectsBadDate(t *testing.T) {
	d := "next friday"
	assert.Error(t, (&UpdateGoalRequest{TargetDate: &d}).Validate())
}

func TestCreateTaskRequest_ValidatesWeek(t *testing.T) {
	assert.NoError(t, (&CreateTaskRequest{Title: "Write", WeekStart: "2026-10-12"}).Validate())
	assert.Error(t, (&CreateTaskRequest{Title: "Write", WeekStart: "2026-10-14"}).Validate())
	assert.Error(t, (&CreateTaskRequest{Title: " "}).Validate())
}

func TestUpsertReflectionRequest_Rating(t *testing.T) {
	assert.NoError(t, (&UpsertReflectionRequest{Rating: 5}).Validate())
	assert.Error(t, (&UpsertReflectionRequest{Rating: 0}).Validate())
	assert.Error(t, (&UpsertReflectionRequest{Rating: 6}).Validate())
}

func TestUpdateProfileRequest_Timezone(t *testing.T) {
	tz := " Europe/Istanbul "
	req := UpdateProfileRequest{Timezone: &tz}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Europe/Istanbul", *req.Timezone)

	bad := "Mars/Olympus"
	assert.Error(t, (&UpdateProfileRequest{Timezone: &bad}).Validate())
	assert.Error(t, (&UpdateProfileRequest{}).Validate())
}

func TestRegisterRequest_Validate(t *testing.T) {
	req := RegisterRequest{Email: "A@B.io", Password: "longenough", FullName: "Ada L"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "a@b.io", req.Email)

	req.Password = "short"
	assert.Error(t, req.Validate())
}

func TestNotificationPreferences(t *testing.T) {
	prefs := DefaultPreferences("u1")
	assert.Equal(t, FrequencyInstant, prefs.Frequency)
	assert.True(t, prefs.Enabled(KindQuestion))
	assert.True(t, prefs.Enabled(KindAnswer))
	assert.True(t, prefs.Enabled(KindGroupActivity))

	off := false
	digest := FrequencyDigest
	req := UpdatePreferencesRequest{Frequency: &digest, Answers: &off}
	require.NoError(t, req.Validate())
	req.Apply(prefs)

	assert.Equal(t, FrequencyDigest, prefs.Frequency)
	assert.False(t, prefs.Enabled(KindAnswer))
	assert.True(t, prefs.Enabled(KindQuestion))

	weekly := EmailFrequency("weekly")
	assert.Error(t, (&UpdatePreferencesRequest{Frequency: &weekly}).Validate())
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt(" short ", 10))
	assert.Equal(t, "abc…", Excerpt("abcdef", 3))
}

func TestApplicationTemplateKey(t *testing.T) {
	assert.Equal(t, TemplateApplicationApproved, ApplicationTemplateKey(ApplicationApproved))
	assert.Equal(t, TemplateApplicationWaitlisted, ApplicationTemplateKey(ApplicationWaitlisted))
}
