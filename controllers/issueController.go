package controllers

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"civicvoice-be/config"
	"civicvoice-be/escalation"
	"civicvoice-be/models"
	"civicvoice-be/verify"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIssue handles the creation of a new issue
func CreateIssue(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	reportedByID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Title       string          `json:"title" binding:"required,max=200"`
		Description string          `json:"description" binding:"required,max=1000"`
		Category    string          `json:"category" binding:"required"`
		Severity    string          `json:"severity" binding:"required"`
		Images      []string        `json:"images,omitempty"`
		Location    models.Location `json:"location" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := escalation.Normalize(input.Category)
	if !models.IsValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}
	if !models.IsValidSeverity(input.Severity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid severity"})
		return
	}
	if input.Location.City == "" || input.Location.State == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Location must include city and state"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Verification gate: a confident label mismatch is a user-correctable
	// rejection, not a server error.
	if len(input.Images) > 0 {
		if err := verifier.Check(ctx, input.Images[0], category); err != nil {
			if mismatch, ok := err.(*verify.MismatchError); ok {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"error":    mismatch.Error(),
					"detected": mismatch.Detected,
					"expected": mismatch.Expected,
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify image"})
			return
		}
	}

	now := time.Now()
	issue := models.Issue{
		ID:          primitive.NewObjectID(),
		Title:       input.Title,
		Description: input.Description,
		Category:    models.IssueCategory(category),
		Severity:    models.IssueSeverity(input.Severity),
		Images:      input.Images,
		Location:    input.Location,
		Status:      models.StatusReported,
		ReportedBy:  reportedByID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Insert the issue and credit the reporter in one transaction.
	session, err := config.GetClient().StartSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := issueCollection.InsertOne(sc, issue); err != nil {
			return nil, err
		}
		_, err := userCollection.UpdateOne(sc, bson.M{"_id": reportedByID}, bson.M{
			"$inc": bson.M{"points": appCfg.ReportPoints, "reportsCount": 1},
			"$set": bson.M{"updatedAt": now},
		})
		return nil, err
	})
	if err != nil {
		log.WithError(err).Error("failed to create issue")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	c.JSON(http.StatusCreated, issue)
}

// GetAllIssues handles retrieving all issues with filtering, pagination and sorting
func GetAllIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	category := c.Query("category")
	status := c.Query("status")
	search := c.Query("search")
	sortBy := c.DefaultQuery("sort", "newest")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filter := bson.M{}
	if category != "" && category != "all" {
		filter["category"] = escalation.Normalize(category)
	}
	if status != "" && status != "all" {
		filter["status"] = status
	}
	if search != "" {
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": search, "$options": "i"}},
			{"description": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	skip := (page - 1) * limit

	var sortOptions bson.D
	switch sortBy {
	case "oldest":
		sortOptions = bson.D{{Key: "createdAt", Value: 1}}
	case "top":
		sortOptions = bson.D{{Key: "upvotes", Value: -1}, {Key: "createdAt", Value: -1}}
	case "newest":
		fallthrough
	default:
		sortOptions = bson.D{{Key: "createdAt", Value: -1}}
	}

	totalCount, err := issueCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count issues"})
		return
	}

	findOptions := options.Find().
		SetSort(sortOptions).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	var currentUserID string
	if userIDStr, exists := c.Get("user_id"); exists {
		currentUserID = userIDStr.(string)
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"issues":      annotateIssues(ctx, issues, currentUserID),
		"totalIssues": totalCount,
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

// issueView is an Issue enriched with the caller's vote state and the
// reporter's public profile.
type issueView struct {
	models.Issue
	UserVote   string                 `json:"userVote"`
	ReportedBy map[string]interface{} `json:"reportedBy"`
}

func annotateIssues(ctx context.Context, issues []models.Issue, currentUserID string) []issueView {
	views := make([]issueView, 0, len(issues))
	for i := range issues {
		views = append(views, annotateIssue(ctx, &issues[i], currentUserID))
	}
	return views
}

func annotateIssue(ctx context.Context, issue *models.Issue, currentUserID string) issueView {
	userVote := string(escalation.VoteNone)
	if currentUserID != "" {
		userVote = string(escalation.CurrentVoteState(issue, currentUserID))
	}

	reporter := map[string]interface{}{"id": issue.ReportedBy}
	var creator models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": issue.ReportedBy}).Decode(&creator); err == nil {
		reporter["name"] = creator.Name
		reporter["points"] = creator.Points
	}

	return issueView{Issue: *issue, UserVote: userVote, ReportedBy: reporter}
}

// GetIssue retrieves an issue by its ID with the caller's vote state
func GetIssue(c *gin.Context) {
	idParam := c.Param("id")
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	var currentUserID string
	if userIDStr, exists := c.Get("user_id"); exists {
		currentUserID = userIDStr.(string)
	}

	c.JSON(http.StatusOK, annotateIssue(ctx, &issue, currentUserID))
}

// GetIssuesByUser retrieves all issues created by the authenticated user
func GetIssuesByUser(c *gin.Context) {
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

	cursor, err := issueCollection.Find(ctx, bson.M{"reportedBy": userObjID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	c.JSON(http.StatusOK, annotateIssues(ctx, issues, userID.(string)))
}

// UpdateIssue allows the reporter to edit issue details and carries the
// administrative status transitions. Terminal states are immutable.
func UpdateIssue(c *gin.Context) {
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
		Title       *string          `json:"title,omitempty"`
		Description *string          `json:"description,omitempty"`
		Category    *string          `json:"category,omitempty"`
		Severity    *string          `json:"severity,omitempty"`
		Images      []string         `json:"images,omitempty"`
		Location    *models.Location `json:"location,omitempty"`
		Status      *string          `json:"status,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	if issue.ReportedBy != userObjID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to update this issue"})
		return
	}

	now := time.Now()
	update := bson.M{"updatedAt": now}
	if input.Title != nil {
		update["title"] = *input.Title
	}
	if input.Description != nil {
		update["description"] = *input.Description
	}
	if input.Category != nil {
		category := escalation.Normalize(*input.Category)
		if !models.IsValidCategory(category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
			return
		}
		update["category"] = category
	}
	if input.Severity != nil {
		if !models.IsValidSeverity(*input.Severity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid severity"})
			return
		}
		update["severity"] = *input.Severity
	}
	if input.Images != nil {
		update["images"] = input.Images
	}
	if input.Location != nil {
		update["location"] = *input.Location
	}

	resolvedNow := false
	if input.Status != nil {
		if !models.IsValidStatus(*input.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		newStatus := models.IssueStatus(*input.Status)
		if !escalation.CanTransition(issue.Status, newStatus) {
			c.JSON(http.StatusConflict, gin.H{"error": "This status change is not allowed"})
			return
		}
		update["status"] = newStatus
		if newStatus == models.StatusNotified && issue.NotifiedAt == nil {
			update["notifiedAt"] = now
		}
		if newStatus == models.StatusResolved {
			update["resolvedAt"] = now
			resolvedNow = true
		}
	}

	if resolvedNow {
		// Resolution credits the reporter, so both writes ride one
		// transaction.
		session, err := config.GetClient().StartSession()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
			return
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			if _, err := issueCollection.UpdateOne(sc, bson.M{"_id": issueID}, bson.M{"$set": update}); err != nil {
				return nil, err
			}
			_, err := userCollection.UpdateOne(sc, bson.M{"_id": issue.ReportedBy}, bson.M{
				"$inc": bson.M{"points": appCfg.ResolvedPoints, "resolvedCount": 1},
				"$set": bson.M{"updatedAt": now},
			})
			return nil, err
		})
		if err != nil {
			log.WithError(err).Errorf("failed to resolve issue %s", issueID.Hex())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
			return
		}
	} else {
		if _, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID}, bson.M{"$set": update}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue updated successfully"})
}

// DeleteIssue allows the reporter of an issue to delete it
func DeleteIssue(c *gin.Context) {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	if issue.ReportedBy != userObjID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to delete this issue"})
		return
	}

	if _, err := issueCollection.DeleteOne(ctx, bson.M{"_id": issueID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete issue"})
		return
	}

	// Comments are not orphaned.
	if _, err := commentCollection.DeleteMany(ctx, bson.M{"issue": issueID}); err != nil {
		log.WithError(err).Errorf("failed to delete comments for issue %s", issueID.Hex())
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// RecentIssues returns the most recent geotagged issues for the map view
func RecentIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	limit := 19

	filter := bson.M{
		"location.latitude":  bson.M{"$ne": 0},
		"location.longitude": bson.M{"$ne": 0},
	}

	projection := bson.M{
		"_id":       1,
		"title":     1,
		"category":  1,
		"severity":  1,
		"status":    1,
		"location":  1,
		"upvotes":   1,
		"createdAt": 1,
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(projection)

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recent issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode recent issues"})
		return
	}

	type pin struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Category  string    `json:"category"`
		Severity  string    `json:"severity"`
		Status    string    `json:"status"`
		Latitude  float64   `json:"latitude"`
		Longitude float64   `json:"longitude"`
		City      string    `json:"city"`
		Upvotes   int       `json:"upvotes"`
		CreatedAt time.Time `json:"createdAt"`
	}

	pins := make([]pin, 0, len(issues))
	for _, issue := range issues {
		pins = append(pins, pin{
			ID:        issue.ID.Hex(),
			Title:     issue.Title,
			Category:  string(issue.Category),
			Severity:  string(issue.Severity),
			Status:    string(issue.Status),
			Latitude:  issue.Location.Latitude,
			Longitude: issue.Location.Longitude,
			City:      issue.Location.City,
			Upvotes:   issue.Upvotes,
			CreatedAt: issue.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, pins)
}

// GetIssueAnalytics returns analytical data about issues
func GetIssueAnalytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	categoryPipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$category",
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$project": bson.M{
				"name":  "$_id",
				"value": "$count",
				"_id":   0,
			},
		},
	}

	categoryCursor, err := issueCollection.Aggregate(ctx, categoryPipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get category analytics"})
		return
	}
	defer categoryCursor.Close(ctx)

	var issuesByCategory []bson.M
	if err := categoryCursor.All(ctx, &issuesByCategory); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode category analytics"})
		return
	}

	var last7Days []gin.H
	for i := 6; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		nextDate := date.AddDate(0, 0, 1)

		count, err := issueCollection.CountDocuments(ctx, bson.M{
			"createdAt": bson.M{
				"$gte": date,
				"$lt":  nextDate,
			},
		})
		if err != nil {
			count = 0
		}

		last7Days = append(last7Days, gin.H{
			"date":  date.Format("2006-01-02"),
			"count": count,
		})
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(50)

	cursor, err := issueCollection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues for vote analysis"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	type issueVotes struct {
		ID       primitive.ObjectID `json:"id"`
		Title    string             `json:"title"`
		Category string             `json:"category"`
		Status   string             `json:"status"`
		Upvotes  int                `json:"upvotes"`
	}

	topVoted := make([]issueVotes, 0, len(issues))
	for _, issue := range issues {
		topVoted = append(topVoted, issueVotes{
			ID:       issue.ID,
			Title:    issue.Title,
			Category: string(issue.Category),
			Status:   string(issue.Status),
			Upvotes:  issue.Upvotes,
		})
	}

	sort.Slice(topVoted, func(i, j int) bool {
		return topVoted[i].Upvotes > topVoted[j].Upvotes
	})
	if len(topVoted) > 5 {
		topVoted = topVoted[:5]
	}

	totalIssues, err := issueCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		totalIssues = 0
	}

	escalatedIssues, err := issueCollection.CountDocuments(ctx, bson.M{
		"status": models.StatusNotified,
	})
	if err != nil {
		escalatedIssues = 0
	}

	openIssues, err := issueCollection.CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": []models.IssueStatus{
			models.StatusReported, models.StatusVerified,
			models.StatusNotified, models.StatusInProgress,
		}},
	})
	if err != nil {
		openIssues = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"issuesByCategory": issuesByCategory,
		"last7Days":        last7Days,
		"topVotedIssues":   topVoted,
		"totalIssues":      totalIssues,
		"escalatedIssues":  escalatedIssues,
		"openIssues":       openIssues,
	})
}
