package main

import (
	"log"
	"net/http"

	"civicvoice-be/config"
	"civicvoice-be/controllers"
	"civicvoice-be/models"
	"civicvoice-be/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	db := config.ConnectDB()
	if db == nil {
		log.Fatal("Failed to connect to MongoDB")
	}
	log.Println("MongoDB connection established successfully!")

	config.ConnectRedis()

	if err := models.EnsureAuthorityIndex(config.GetCollection("authorities")); err != nil {
		log.Printf("Failed to ensure authority index: %v", err)
	}
	if err := models.EnsureCommentIndex(config.GetCollection("comments")); err != nil {
		log.Printf("Failed to ensure comment index: %v", err)
	}

	cfg := config.Load()
	controllers.Setup(cfg)

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowCredentials = false
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	routes.AuthRoutes(r)
	routes.IssueRoutes(r)
	routes.UserRoutes(r)
	routes.AuthorityRoutes(r)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
