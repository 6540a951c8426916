package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stackit-forum/backend/internal/database"
	"github.com/stackit-forum/backend/internal/handlers"
	"github.com/stackit-forum/backend/internal/middleware"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	db := database.New()

	handler := handlers.NewHandler(db.GetDB())

	newServer := &Server{
		db:      db,
		handler: handler,
	}

	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", port)
	fmt.Println("📝 Press Ctrl+C to stop the server")

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Public reads; a token, when present, adds the caller's own vote
		public := api.Group("")
		public.Use(middleware.OptionalAuthMiddleware())
		{
			public.GET("/questions", s.handler.Question.GetQuestions)
			public.GET("/questions/:id", s.handler.Question.GetQuestion)
			public.GET("/questions/:id/answers", s.handler.Answer.GetAnswers)
			public.GET("/votes", s.handler.Vote.GetVoteSummary)
		}

		api.GET("/tags", s.handler.Tag.GetTags)
		api.GET("/users/search", s.handler.User.SearchUsers)
		api.POST("/views", s.handler.Question.TrackView)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			protected.POST("/questions", s.handler.Question.CreateQuestion)
			protected.POST("/answers", s.handler.Answer.CreateAnswer)
			protected.POST("/answers/accept", s.handler.Answer.AcceptAnswer)
			protected.POST("/votes", s.handler.Vote.CastVote)

			protected.PUT("/user/profile", s.handler.User.UpdateProfile)

			protected.GET("/notifications", s.handler.Notification.GetNotifications)
			protected.PUT("/notifications/read", s.handler.Notification.MarkRead)

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.AdminMiddleware(s.db.GetDB()))
			{
				admin.GET("/moderate", s.handler.Admin.Overview)
				admin.DELETE("/moderate", s.handler.Admin.DeleteContent)
				admin.POST("/moderate", s.handler.Admin.Moderate)
				admin.POST("/users/role", s.handler.Admin.UpdateRole)
			}
		}
	}

	return r
}
