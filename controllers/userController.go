package controllers

import (
	"context"
	"net/http"
	"time"

	"civicvoice-be/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetProfile returns the authenticated user's public profile and stats
func GetProfile(c *gin.Context) {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userObjID}).Decode(&user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Leaderboard returns the top users by points
func Leaderboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := userCollection.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "points", Value: -1}}).
			SetLimit(20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve leaderboard"})
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode leaderboard"})
		return
	}

	type entry struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Points        int    `json:"points"`
		ReportsCount  int    `json:"reportsCount"`
		ResolvedCount int    `json:"resolvedCount"`
	}

	entries := make([]entry, 0, len(users))
	for _, u := range users {
		entries = append(entries, entry{
			ID:            u.ID.Hex(),
			Name:          u.Name,
			Points:        u.Points,
			ReportsCount:  u.ReportsCount,
			ResolvedCount: u.ResolvedCount,
		})
	}

	c.JSON(http.StatusOK, entries)
}

// SyncUserStats is the reconciliation pass: optimistic per-action updates
// can drift under partial failure, so the user's aggregates are recomputed
// from the issues and comments actually attributable to them and written
// back as the new truth.
func SyncUserStats(c *gin.Context) {
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reportsCount, err := issueCollection.CountDocuments(ctx, bson.M{"reportedBy": userObjID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync stats"})
		return
	}

	resolvedCount, err := issueCollection.CountDocuments(ctx, bson.M{
		"reportedBy": userObjID,
		"status":     models.StatusResolved,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync stats"})
		return
	}

	commentsCount, err := commentCollection.CountDocuments(ctx, bson.M{"user": userObjID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync stats"})
		return
	}

	voterID := userObjID.Hex()
	votesCount, err := issueCollection.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"upvotedBy": voterID},
		{"downvotedBy": voterID},
	}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync stats"})
		return
	}

	points := int(reportsCount)*appCfg.ReportPoints +
		int(resolvedCount)*appCfg.ResolvedPoints +
		int(commentsCount)*appCfg.CommentPoints +
		int(votesCount)*appCfg.VotePoints

	now := time.Now()
	_, err = userCollection.UpdateOne(ctx, bson.M{"_id": userObjID}, bson.M{"$set": bson.M{
		"points":        points,
		"reportsCount":  int(reportsCount),
		"resolvedCount": int(resolvedCount),
		"updatedAt":     now,
	}})
	if err != nil {
		log.WithError(err).Errorf("failed to write synced stats for user %s", voterID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Stats synced",
		"points":        points,
		"reportsCount":  reportsCount,
		"resolvedCount": resolvedCount,
	})
}
