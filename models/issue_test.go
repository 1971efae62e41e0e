package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCategory(t *testing.T) {
	for _, c := range ValidCategories {
		assert.True(t, IsValidCategory(string(c)))
	}
	assert.False(t, IsValidCategory("Potholes"))
	assert.False(t, IsValidCategory(""))
	assert.False(t, IsValidCategory("noise"))
}

func TestStatusTerminality(t *testing.T) {
	assert.True(t, StatusResolved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())

	for _, s := range []IssueStatus{StatusReported, StatusVerified, StatusNotified, StatusInProgress} {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}

func TestIssueVoteSets(t *testing.T) {
	issue := Issue{
		UpvotedBy:   []string{"a", "b"},
		DownvotedBy: []string{"c"},
		SharedBy:    []string{"a"},
	}

	assert.True(t, issue.HasUpvoted("a"))
	assert.True(t, issue.HasUpvoted("b"))
	assert.False(t, issue.HasUpvoted("c"))
	assert.True(t, issue.HasDownvoted("c"))
	assert.False(t, issue.HasDownvoted("a"))
	assert.True(t, issue.HasShared("a"))
	assert.False(t, issue.HasShared("b"))
}

func TestRemoveID(t *testing.T) {
	set := []string{"a", "b", "c"}
	assert.Equal(t, []string{"a", "c"}, RemoveID(set, "b"))
	assert.Equal(t, []string{"a", "b", "c"}, RemoveID(set, "z"))
	assert.Empty(t, RemoveID([]string{"a"}, "a"))
}

func TestUserPasswordRoundTrip(t *testing.T) {
	u := User{Password: "hunter22"}
	assert.NoError(t, u.HashPassword())
	assert.NotEqual(t, "hunter22", u.Password)
	assert.True(t, u.ComparePassword("hunter22"))
	assert.False(t, u.ComparePassword("hunter23"))
}
