package routes

import (
	"civicvoice-be/controllers"
	"civicvoice-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AuthorityRoutes sets up the authority registry routes
func AuthorityRoutes(r *gin.Engine) {
	authority := r.Group("/api/authority")
	{
		authority.GET("", controllers.ListAuthorities)
		authority.POST("/create", middlewares.AuthMiddleware(), controllers.CreateAuthority)
	}
}
