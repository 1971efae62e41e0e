package controllers

import (
	"context"
	"net/http"
	"time"

	"civicvoice-be/escalation"
	"civicvoice-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListAuthorities returns registered authorities, optionally filtered by
// jurisdiction
func ListAuthorities(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if city := c.Query("city"); city != "" {
		filter["city"] = city
	}
	if state := c.Query("state"); state != "" {
		filter["state"] = state
	}

	cursor, err := authorityCollection.Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve authorities"})
		return
	}
	defer cursor.Close(ctx)

	authorities := []models.Authority{}
	if err := cursor.All(ctx, &authorities); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode authorities"})
		return
	}

	c.JSON(http.StatusOK, authorities)
}

// CreateAuthority registers an authority organization the resolver can
// select for escalations
func CreateAuthority(c *gin.Context) {
	var input struct {
		Name              string   `json:"name" binding:"required,max=200"`
		DepartmentType    string   `json:"departmentType" binding:"required"`
		City              string   `json:"city" binding:"required"`
		State             string   `json:"state" binding:"required"`
		HandledCategories []string `json:"handledCategories"`
		ContactEmail      string   `json:"contactEmail" binding:"required,email"`
		NotifyByEmail     *bool    `json:"notifyByEmail"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.IsValidDepartment(input.DepartmentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid department type"})
		return
	}

	handled := make([]string, 0, len(input.HandledCategories))
	for _, cat := range input.HandledCategories {
		handled = append(handled, escalation.Normalize(cat))
	}

	notify := true
	if input.NotifyByEmail != nil {
		notify = *input.NotifyByEmail
	}

	now := time.Now()
	authority := models.Authority{
		ID:                primitive.NewObjectID(),
		Name:              input.Name,
		DepartmentType:    input.DepartmentType,
		City:              input.City,
		State:             input.State,
		HandledCategories: handled,
		ContactEmail:      input.ContactEmail,
		NotifyByEmail:     notify,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := authorityCollection.InsertOne(ctx, authority); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create authority"})
		return
	}

	c.JSON(http.StatusCreated, authority)
}
