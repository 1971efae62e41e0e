package controllers

import (
	"context"
	"net/http"
	"time"

	"civicvoice-be/config"
	"civicvoice-be/escalation"
	"civicvoice-be/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// voteOutcome is what the vote transaction hands back to the HTTP layer
// after committing.
type voteOutcome struct {
	Issue        models.Issue
	Plan         escalation.VotePlan
	ShouldNotify bool
}

// HandleVoteOnIssue records the caller's vote on an issue. The identity
// sets, the aggregate counters, the voter's points and any escalation
// status change are written in one transaction; the authority notification
// is dispatched after the commit, off this request.
func HandleVoteOnIssue(c *gin.Context) {
	idParam := c.Param("id")
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userObjID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Direction string `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !escalation.IsValidVoteState(input.Direction) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Direction must be one of up, down, none"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	outcome, err := applyVote(ctx, issueID, userObjID, escalation.VoteState(input.Direction))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
			return
		}
		log.WithError(err).Errorf("vote transaction failed for issue %s", issueID.Hex())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record vote, please try again"})
		return
	}

	// Post-commit side effect: the issue stays notified even if this fails.
	if outcome.ShouldNotify {
		issue := outcome.Issue
		go dispatchEscalation(&issue)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Vote recorded",
		"vote":      string(outcome.Plan.Next),
		"upvotes":   outcome.Issue.Upvotes,
		"downvotes": outcome.Issue.Downvotes,
		"status":    outcome.Issue.Status,
	})
}

// applyVote runs the vote as a single atomic read-modify-write over the
// issue and user documents.
func applyVote(ctx context.Context, issueID, userObjID primitive.ObjectID, requested escalation.VoteState) (*voteOutcome, error) {
	session, err := config.GetClient().StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var issue models.Issue
		if err := issueCollection.FindOne(sc, bson.M{"_id": issueID}).Decode(&issue); err != nil {
			return nil, err
		}

		voterID := userObjID.Hex()
		previous := escalation.CurrentVoteState(&issue, voterID)
		plan := engine.PlanVote(previous, requested)

		escalation.ApplyPlan(&issue, voterID, plan)

		now := time.Now()
		_, shouldNotify := engine.Evaluate(issue.Status, issue.Upvotes, plan.Incremented())
		update := bson.M{
			"upvotedBy":   issue.UpvotedBy,
			"downvotedBy": issue.DownvotedBy,
			"upvotes":     issue.Upvotes,
			"downvotes":   issue.Downvotes,
			"updatedAt":   now,
		}
		if shouldNotify {
			if escalation.MarkNotified(&issue, now) {
				update["notifiedAt"] = now
			}
			update["status"] = issue.Status
		}
		issue.UpdatedAt = now

		if _, err := issueCollection.UpdateOne(sc, bson.M{"_id": issueID}, bson.M{"$set": update}); err != nil {
			return nil, err
		}

		if plan.PointsDelta != 0 {
			if err := adjustUserPoints(sc, userObjID, plan.PointsDelta); err != nil {
				return nil, err
			}
		}

		return &voteOutcome{Issue: issue, Plan: plan, ShouldNotify: shouldNotify}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*voteOutcome), nil
}

// adjustUserPoints applies the voter's point delta inside the vote
// transaction. A missing user document is recovered by synthesizing a
// default zero-point record rather than failing the vote.
func adjustUserPoints(sc mongo.SessionContext, userObjID primitive.ObjectID, delta int) error {
	var user models.User
	err := userCollection.FindOne(sc, bson.M{"_id": userObjID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		user = models.DefaultUser(userObjID)
		user.Points = delta
		if user.Points < 0 {
			user.Points = 0
		}
		_, err = userCollection.InsertOne(sc, user)
		return err
	}
	if err != nil {
		return err
	}

	_, err = userCollection.UpdateOne(sc, bson.M{"_id": userObjID}, bson.M{
		"$inc": bson.M{"points": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	return err
}

// dispatchEscalation resolves the responsible authorities and fires the
// notification. Runs on its own goroutine with its own deadline; failures
// are logged and never propagate to the vote that triggered them.
func dispatchEscalation(issue *models.Issue) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	authorities := resolver.Resolve(ctx, issue)
	if err := dispatcher.Notify(ctx, issue, authorities); err != nil {
		log.WithError(err).Errorf("escalation dispatch failed for issue %s", issue.ID.Hex())
	}
}
