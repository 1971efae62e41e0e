package controllers

import (
	"context"
	"net/http"
	"time"

	"civicvoice-be/config"
	"civicvoice-be/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AddComment attaches a comment to an issue. The comment insert, the
// issue's commentsCount and the commenter's points are written in one
// transaction so the count stays equal to the stored comments.
func AddComment(c *gin.Context) {
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
		Text string `json:"text" binding:"required,max=500"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var issue models.Issue
	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userObjID}).Decode(&user); err != nil {
		user = models.DefaultUser(userObjID)
	}

	now := time.Now()
	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		Issue:     issueID,
		User:      userObjID,
		UserName:  user.Name,
		Text:      input.Text,
		CreatedAt: now,
	}

	session, err := config.GetClient().StartSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := commentCollection.InsertOne(sc, comment); err != nil {
			return nil, err
		}
		if _, err := issueCollection.UpdateOne(sc, bson.M{"_id": issueID}, bson.M{
			"$inc": bson.M{"commentsCount": 1},
			"$set": bson.M{"updatedAt": now},
		}); err != nil {
			return nil, err
		}
		_, err := userCollection.UpdateOne(sc, bson.M{"_id": userObjID}, bson.M{
			"$inc": bson.M{"points": appCfg.CommentPoints},
			"$set": bson.M{"updatedAt": now},
		})
		return nil, err
	})
	if err != nil {
		log.WithError(err).Errorf("failed to add comment on issue %s", issueID.Hex())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// GetComments lists an issue's comments, oldest first
func GetComments(c *gin.Context) {
	idParam := c.Param("id")
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := commentCollection.Find(ctx, bson.M{"issue": issueID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode comments"})
		return
	}

	c.JSON(http.StatusOK, comments)
}

// ShareIssue records that the caller shared the issue. Idempotent per
// user: a repeat share neither grows the set nor the counter.
func ShareIssue(c *gin.Context) {
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

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	session, err := config.GetClient().StartSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record share"})
		return
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var issue models.Issue
		if err := issueCollection.FindOne(sc, bson.M{"_id": issueID}).Decode(&issue); err != nil {
			return nil, err
		}
		if issue.HasShared(userID.(string)) {
			return issue.Shares, nil
		}

		issue.SharedBy = append(issue.SharedBy, userID.(string))
		shares := len(issue.SharedBy)
		_, err := issueCollection.UpdateOne(sc, bson.M{"_id": issueID}, bson.M{"$set": bson.M{
			"sharedBy":  issue.SharedBy,
			"shares":    shares,
			"updatedAt": time.Now(),
		}})
		return shares, err
	})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
			return
		}
		log.WithError(err).Errorf("failed to record share on issue %s", issueID.Hex())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record share"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Share recorded",
		"shares":  result.(int),
	})
}
