package routes

import (
	"civicvoice-be/controllers"
	"civicvoice-be/middlewares"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up the user profile and gamification routes
func UserRoutes(r *gin.Engine) {
	user := r.Group("/api/user")
	{
		user.GET("/profile", middlewares.AuthMiddleware(), controllers.GetProfile)
		user.GET("/leaderboard", controllers.Leaderboard)
		user.POST("/sync", middlewares.AuthMiddleware(), controllers.SyncUserStats)
	}
}
