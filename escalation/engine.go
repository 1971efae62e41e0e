package escalation

import (
	"time"

	"civicvoice-be/models"
)

// DefaultThreshold is the upvote count at which an issue is escalated to
// the responsible authorities.
const DefaultThreshold = 5

// VoteState is a user's standing on a single issue
type VoteState string

const (
	VoteNone VoteState = "none"
	VoteUp   VoteState = "up"
	VoteDown VoteState = "down"
)

// IsValidVoteState reports whether s is a recognized vote direction.
func IsValidVoteState(s string) bool {
	switch VoteState(s) {
	case VoteNone, VoteUp, VoteDown:
		return true
	}
	return false
}

// VotePlan is the effect of one vote action on the issue's aggregates and
// the voter's points. All deltas must be applied in a single transaction.
type VotePlan struct {
	Previous      VoteState
	Next          VoteState
	UpvoteDelta   int
	DownvoteDelta int
	PointsDelta   int
}

// Incremented reports whether the plan increases the upvote count,
// which is the only trigger the escalation rule reacts to.
func (p VotePlan) Incremented() bool {
	return p.UpvoteDelta > 0
}

// Engine evaluates vote transitions and the escalation rule
type Engine struct {
	Threshold  int
	VotePoints int
}

// NewEngine returns an engine with the given escalation threshold and the
// points awarded per fresh vote. Non-positive values fall back to defaults.
func NewEngine(threshold, votePoints int) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if votePoints <= 0 {
		votePoints = 1
	}
	return &Engine{Threshold: threshold, VotePoints: votePoints}
}

// CurrentVoteState returns the user's standing on the issue from its
// identity sets.
func CurrentVoteState(issue *models.Issue, userID string) VoteState {
	if issue.HasUpvoted(userID) {
		return VoteUp
	}
	if issue.HasDownvoted(userID) {
		return VoteDown
	}
	return VoteNone
}

// PlanVote computes the 4-way vote transition for a (issue, user) pair.
// Requesting the direction the user already holds retracts the vote
// (toggle), requesting the opposite direction switches it atomically, and
// requesting "none" retracts whatever is held. A switch is point-neutral;
// a fresh vote in either direction awards the voter points and a
// retraction takes them back.
func (e *Engine) PlanVote(previous, requested VoteState) VotePlan {
	next := requested
	if requested == previous {
		next = VoteNone
	}

	plan := VotePlan{Previous: previous, Next: next}
	if next == previous {
		return plan
	}

	switch previous {
	case VoteUp:
		plan.UpvoteDelta--
	case VoteDown:
		plan.DownvoteDelta--
	}
	switch next {
	case VoteUp:
		plan.UpvoteDelta++
	case VoteDown:
		plan.DownvoteDelta++
	}

	switch {
	case previous == VoteNone && next != VoteNone:
		plan.PointsDelta = e.VotePoints
	case previous != VoteNone && next == VoteNone:
		plan.PointsDelta = -e.VotePoints
	}

	return plan
}

// ApplyPlan rewrites the issue's identity sets for the planned transition
// and recomputes the aggregate counters from them, so exclusivity and the
// counter-set equality hold by construction after every operation.
func ApplyPlan(issue *models.Issue, voterID string, plan VotePlan) {
	issue.UpvotedBy = models.RemoveID(issue.UpvotedBy, voterID)
	issue.DownvotedBy = models.RemoveID(issue.DownvotedBy, voterID)
	switch plan.Next {
	case VoteUp:
		issue.UpvotedBy = append(issue.UpvotedBy, voterID)
	case VoteDown:
		issue.DownvotedBy = append(issue.DownvotedBy, voterID)
	}
	issue.Upvotes = len(issue.UpvotedBy)
	issue.Downvotes = len(issue.DownvotedBy)
}

// Evaluate applies the escalation rule after a vote. It is edge-triggered:
// the notified status itself guards against re-firing, so oscillation of
// the upvote count below and back above the threshold never notifies twice.
func (e *Engine) Evaluate(status models.IssueStatus, newUpvotes int, incremented bool) (models.IssueStatus, bool) {
	if !incremented {
		return status, false
	}
	if status == models.StatusNotified || status.IsTerminal() {
		return status, false
	}
	if newUpvotes >= e.Threshold {
		return models.StatusNotified, true
	}
	return status, false
}

// MarkNotified moves the issue to the notified status and reports whether
// notifiedAt was stamped. The timestamp records the first escalation only;
// an issue that re-escalates after regressing keeps its original stamp.
func MarkNotified(issue *models.Issue, now time.Time) bool {
	issue.Status = models.StatusNotified
	if issue.NotifiedAt == nil {
		issue.NotifiedAt = &now
		return true
	}
	return false
}

// statusOrder gives the forward progression of the administrative lifecycle.
var statusOrder = map[models.IssueStatus]int{
	models.StatusReported:   0,
	models.StatusVerified:   1,
	models.StatusNotified:   2,
	models.StatusInProgress: 3,
	models.StatusResolved:   4,
}

// CanTransition reports whether an administrative status change is legal.
// Terminal states are immutable; rejection is reachable from any
// non-terminal state; otherwise the lifecycle only moves forward.
func CanTransition(from, to models.IssueStatus) bool {
	if from == to {
		return false
	}
	if from.IsTerminal() {
		return false
	}
	if to == models.StatusRejected {
		return true
	}
	fromOrd, ok := statusOrder[from]
	if !ok {
		return false
	}
	toOrd, ok := statusOrder[to]
	if !ok {
		return false
	}
	return toOrd > fromOrd
}
