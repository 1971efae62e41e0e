package escalation

import (
	"testing"
	"time"

	"civicvoice-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanVoteTransitions(t *testing.T) {
	e := NewEngine(5, 1)

	tests := []struct {
		name      string
		previous  VoteState
		requested VoteState
		next      VoteState
		upDelta   int
		downDelta int
		points    int
	}{
		{"fresh upvote", VoteNone, VoteUp, VoteUp, 1, 0, 1},
		{"fresh downvote", VoteNone, VoteDown, VoteDown, 0, 1, 1},
		{"retract upvote via toggle", VoteUp, VoteUp, VoteNone, -1, 0, -1},
		{"retract downvote via toggle", VoteDown, VoteDown, VoteNone, 0, -1, -1},
		{"explicit unvote from up", VoteUp, VoteNone, VoteNone, -1, 0, -1},
		{"explicit unvote from down", VoteDown, VoteNone, VoteNone, 0, -1, -1},
		{"switch up to down", VoteUp, VoteDown, VoteDown, -1, 1, 0},
		{"switch down to up", VoteDown, VoteUp, VoteUp, 1, -1, 0},
		{"unvote with no vote held", VoteNone, VoteNone, VoteNone, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := e.PlanVote(tt.previous, tt.requested)
			assert.Equal(t, tt.next, plan.Next)
			assert.Equal(t, tt.upDelta, plan.UpvoteDelta)
			assert.Equal(t, tt.downDelta, plan.DownvoteDelta)
			assert.Equal(t, tt.points, plan.PointsDelta)
		})
	}
}

func TestSwitchIsPointNeutral(t *testing.T) {
	e := NewEngine(5, 3)

	plan := e.PlanVote(VoteUp, VoteDown)
	assert.Equal(t, 0, plan.PointsDelta)

	plan = e.PlanVote(VoteDown, VoteUp)
	assert.Equal(t, 0, plan.PointsDelta)

	// Fresh and retract scale with the configured vote points.
	assert.Equal(t, 3, e.PlanVote(VoteNone, VoteUp).PointsDelta)
	assert.Equal(t, -3, e.PlanVote(VoteDown, VoteNone).PointsDelta)
}

func TestVoteExclusivityFromSets(t *testing.T) {
	// A user can never be in both identity sets; CurrentVoteState prefers
	// the upvote set, and every plan moves through at most one set.
	issue := &models.Issue{
		UpvotedBy:   []string{"alice"},
		DownvotedBy: []string{"bob"},
	}

	assert.Equal(t, VoteUp, CurrentVoteState(issue, "alice"))
	assert.Equal(t, VoteDown, CurrentVoteState(issue, "bob"))
	assert.Equal(t, VoteNone, CurrentVoteState(issue, "carol"))
}

// checkVoteSets asserts the invariants every vote mutation must preserve:
// a user is never in both identity sets, and each counter equals the size
// of its set.
func checkVoteSets(t *testing.T, issue *models.Issue) {
	t.Helper()
	seen := make(map[string]bool, len(issue.UpvotedBy))
	for _, id := range issue.UpvotedBy {
		seen[id] = true
	}
	for _, id := range issue.DownvotedBy {
		assert.False(t, seen[id], "user %s is in both vote sets", id)
	}
	assert.Equal(t, len(issue.UpvotedBy), issue.Upvotes)
	assert.Equal(t, len(issue.DownvotedBy), issue.Downvotes)
}

func TestApplyPlanSequences(t *testing.T) {
	e := NewEngine(5, 1)

	tests := []struct {
		name      string
		requests  []VoteState
		upvotes   int
		downvotes int
		final     VoteState
	}{
		{"single upvote", []VoteState{VoteUp}, 1, 0, VoteUp},
		{"single downvote", []VoteState{VoteDown}, 0, 1, VoteDown},
		{"double upvote toggles off", []VoteState{VoteUp, VoteUp}, 0, 0, VoteNone},
		{"double downvote toggles off", []VoteState{VoteDown, VoteDown}, 0, 0, VoteNone},
		{"switch up to down", []VoteState{VoteUp, VoteDown}, 0, 1, VoteDown},
		{"switch down to up", []VoteState{VoteDown, VoteUp}, 1, 0, VoteUp},
		{"explicit unvote", []VoteState{VoteUp, VoteNone}, 0, 0, VoteNone},
		{"full oscillation", []VoteState{VoteUp, VoteDown, VoteUp, VoteUp}, 0, 0, VoteNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := &models.Issue{}
			for _, requested := range tt.requests {
				previous := CurrentVoteState(issue, "alice")
				ApplyPlan(issue, "alice", e.PlanVote(previous, requested))
				checkVoteSets(t, issue)
			}
			assert.Equal(t, tt.upvotes, issue.Upvotes)
			assert.Equal(t, tt.downvotes, issue.Downvotes)
			assert.Equal(t, tt.final, CurrentVoteState(issue, "alice"))
		})
	}
}

func TestApplyPlanLeavesOtherVotersAlone(t *testing.T) {
	e := NewEngine(5, 1)
	issue := &models.Issue{
		UpvotedBy:   []string{"alice", "bob"},
		DownvotedBy: []string{"carol"},
		Upvotes:     2,
		Downvotes:   1,
	}

	// Bob switches to a downvote; alice and carol are untouched.
	ApplyPlan(issue, "bob", e.PlanVote(CurrentVoteState(issue, "bob"), VoteDown))
	checkVoteSets(t, issue)
	assert.Equal(t, []string{"alice"}, issue.UpvotedBy)
	assert.ElementsMatch(t, []string{"carol", "bob"}, issue.DownvotedBy)

	// Carol retracts; only her entry disappears.
	ApplyPlan(issue, "carol", e.PlanVote(CurrentVoteState(issue, "carol"), VoteNone))
	checkVoteSets(t, issue)
	assert.Equal(t, 1, issue.Upvotes)
	assert.Equal(t, 1, issue.Downvotes)
	assert.Equal(t, VoteNone, CurrentVoteState(issue, "carol"))
}

func TestEvaluateThresholdCrossing(t *testing.T) {
	e := NewEngine(5, 1)

	status, notify := e.Evaluate(models.StatusReported, 5, true)
	require.True(t, notify)
	assert.Equal(t, models.StatusNotified, status)

	// Below threshold nothing happens.
	status, notify = e.Evaluate(models.StatusReported, 4, true)
	assert.False(t, notify)
	assert.Equal(t, models.StatusReported, status)

	// Crossing from a verified issue also escalates.
	status, notify = e.Evaluate(models.StatusVerified, 7, true)
	assert.True(t, notify)
	assert.Equal(t, models.StatusNotified, status)
}

func TestEvaluateIsEdgeTriggered(t *testing.T) {
	e := NewEngine(5, 1)

	// Upvotes accumulate one at a time; notification fires exactly once,
	// on the vote that takes the count from 4 to 5.
	status := models.StatusReported
	fired := 0
	for upvotes := 1; upvotes <= 10; upvotes++ {
		newStatus, notify := e.Evaluate(status, upvotes, true)
		if notify {
			fired++
			assert.Equal(t, 5, upvotes)
		}
		status = newStatus
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, models.StatusNotified, status)

	// Oscillation below and back above the threshold never re-fires once
	// the issue is notified.
	for _, upvotes := range []int{4, 3, 5, 6, 9} {
		newStatus, notify := e.Evaluate(status, upvotes, true)
		assert.False(t, notify)
		assert.Equal(t, models.StatusNotified, newStatus)
	}
}

func TestEvaluateIgnoresNonIncrements(t *testing.T) {
	e := NewEngine(5, 1)

	// A retraction or downvote leaving the count at the threshold must not
	// trigger.
	_, notify := e.Evaluate(models.StatusReported, 5, false)
	assert.False(t, notify)
}

func TestEvaluateNeverTouchesTerminalStates(t *testing.T) {
	e := NewEngine(5, 1)

	for _, terminal := range []models.IssueStatus{models.StatusResolved, models.StatusRejected} {
		status, notify := e.Evaluate(terminal, 100, true)
		assert.False(t, notify)
		assert.Equal(t, terminal, status)
	}
}

func TestEscalationScenario(t *testing.T) {
	// Issue at 4 upvotes, status reported: the fifth upvote escalates,
	// the sixth does not.
	e := NewEngine(5, 1)

	issue := &models.Issue{
		Status:    models.StatusReported,
		UpvotedBy: []string{"u1", "u2", "u3", "u4"},
		Upvotes:   4,
	}

	plan := e.PlanVote(CurrentVoteState(issue, "u5"), VoteUp)
	require.True(t, plan.Incremented())
	ApplyPlan(issue, "u5", plan)

	status, notify := e.Evaluate(issue.Status, issue.Upvotes, plan.Incremented())
	require.True(t, notify)
	issue.Status = status
	assert.Equal(t, models.StatusNotified, issue.Status)

	// Second upvote from a different user: counter grows, no re-dispatch.
	plan = e.PlanVote(CurrentVoteState(issue, "u6"), VoteUp)
	ApplyPlan(issue, "u6", plan)

	status, notify = e.Evaluate(issue.Status, issue.Upvotes, plan.Incremented())
	assert.False(t, notify)
	assert.Equal(t, models.StatusNotified, status)
	assert.Equal(t, 6, issue.Upvotes)
}

func TestMarkNotifiedStampsFirstEscalationOnly(t *testing.T) {
	issue := &models.Issue{Status: models.StatusReported}

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.True(t, MarkNotified(issue, first))
	assert.Equal(t, models.StatusNotified, issue.Status)
	require.NotNil(t, issue.NotifiedAt)
	assert.Equal(t, first, *issue.NotifiedAt)

	// The issue moves on, votes drop below the threshold and re-cross it:
	// status flips back to notified but the original stamp survives.
	issue.Status = models.StatusInProgress
	assert.False(t, MarkNotified(issue, first.Add(2*time.Hour)))
	assert.Equal(t, models.StatusNotified, issue.Status)
	assert.Equal(t, first, *issue.NotifiedAt)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.IssueStatus
		allowed  bool
	}{
		{models.StatusReported, models.StatusVerified, true},
		{models.StatusReported, models.StatusResolved, true},
		{models.StatusVerified, models.StatusInProgress, true},
		{models.StatusNotified, models.StatusInProgress, true},
		{models.StatusInProgress, models.StatusResolved, true},
		{models.StatusReported, models.StatusRejected, true},
		{models.StatusInProgress, models.StatusRejected, true},
		{models.StatusVerified, models.StatusReported, false},
		{models.StatusInProgress, models.StatusVerified, false},
		{models.StatusResolved, models.StatusInProgress, false},
		{models.StatusResolved, models.StatusRejected, false},
		{models.StatusRejected, models.StatusReported, false},
		{models.StatusRejected, models.StatusResolved, false},
		{models.StatusReported, models.StatusReported, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to),
			"transition %s -> %s", tt.from, tt.to)
	}
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(0, 0)
	assert.Equal(t, DefaultThreshold, e.Threshold)
	assert.Equal(t, 1, e.VotePoints)
}
