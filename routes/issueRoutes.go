package routes

import (
	"civicvoice-be/controllers"
	"civicvoice-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine) {
	issue := r.Group("/api/issue")
	{
		issue.POST("/create", middlewares.AuthMiddleware(), middlewares.IssueRateLimiter(5), controllers.CreateIssue)
		issue.GET("/user", middlewares.AuthMiddleware(), controllers.GetIssuesByUser)
		issue.GET("/:id", middlewares.AuthMiddleware(), controllers.GetIssue)
		issue.PUT("/:id", middlewares.AuthMiddleware(), controllers.UpdateIssue)
		issue.DELETE("/:id", middlewares.AuthMiddleware(), controllers.DeleteIssue)
		issue.POST("/:id/vote", middlewares.AuthMiddleware(), controllers.HandleVoteOnIssue)
		issue.POST("/:id/comment", middlewares.AuthMiddleware(), controllers.AddComment)
		issue.GET("/:id/comments", controllers.GetComments)
		issue.POST("/:id/share", middlewares.AuthMiddleware(), controllers.ShareIssue)
	}

	issues := r.Group("/api/issues")
	{
		issues.GET("", controllers.GetAllIssues)
		issues.GET("/recent", controllers.RecentIssues)
		issues.GET("/analytics", controllers.GetIssueAnalytics)
	}
}
