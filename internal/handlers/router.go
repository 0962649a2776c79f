package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/auth"
	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/middleware"
	"github.com/justsurfingit/InternConnect/internal/models"
	"github.com/justsurfingit/InternConnect/internal/ratelimit"
	"github.com/justsurfingit/InternConnect/internal/services"
	"github.com/justsurfingit/InternConnect/internal/storage"
	"gorm.io/gorm"
)

const (
	loginLimit  = 10
	applyLimit  = 5
	limitWindow = time.Minute
)

// Dependencies is everything the router hands to its handlers.
type Dependencies struct {
	DB           *gorm.DB
	Tokens       *auth.TokenIssuer
	Limiter      ratelimit.Limiter
	Files        *storage.Local // nil unless objects live on local disk
	CORSOrigins  []string
	CookieSecure bool

	// TrustedProxies may set X-Forwarded-For; with none, ClientIP is the socket address.
	TrustedProxies []string

	LLM          *services.LLMService
	Auth         *services.AuthService
	Students     *services.StudentService
	Employers    *services.EmployerService
	Jobs         *services.JobService
	Applications *services.ApplicationService
	Interviews   *services.InterviewService
	Matcher      *services.MatcherService
	Admin        *services.AdminService
	Posts        *services.PostService
	Dashboards   *services.DashboardService
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.ExposeHeaders = []string{middleware.RequestIDHeader}
	return config
}

func NewRouter(d Dependencies) *gin.Engine {
	authHandler := NewAuthHandler(d.Auth, d.CookieSecure)
	jobHandler := NewJobHandler(d.LLM, d.Jobs, d.Applications, d.Matcher)
	studentHandler := NewStudentHandler(d.Students, d.Applications, d.Interviews, d.Matcher)
	employerHandler := NewEmployerHandler(d.Employers, d.Applications, d.Interviews)
	adminHandler := NewAdminHandler(d.Admin)
	postHandler := NewPostHandler(d.Posts)
	pageHandler := NewPageHandler(d.Dashboards, d.DB, d.Files)

	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		logging.L.Error("❌ invalid trusted proxies, trusting none", "proxies", d.TrustedProxies, "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), middleware.RequestLogger(), cors.New(corsConfig(d.CORSOrigins)))
	r.MaxMultipartMemory = services.MaxUploadSize

	requireAuth := middleware.Authenticate(d.Tokens)

	api := r.Group("/api")
	{
		api.GET("/health", pageHandler.Health)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", middleware.RateLimit(d.Limiter, "login", loginLimit, limitWindow, middleware.ByClientIP), authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", requireAuth, authHandler.Me)

		api.GET("/jobs", jobHandler.ListPublic)
		api.GET("/jobs/:id", jobHandler.GetPublic)
		api.GET("/companies/top", employerHandler.TopCompanies)
		api.GET("/employers/:id", employerHandler.PublicProfile)
		api.GET("/posts", postHandler.List)
		api.GET("/posts/hashtags/trending", postHandler.Trending)
		api.POST("/posts", requireAuth, postHandler.Create)

		student := api.Group("/student", requireAuth, middleware.RequireRole(models.RoleStudent))
		student.GET("/profile", studentHandler.Profile)
		student.PUT("/profile", studentHandler.UpdateProfile)
		student.POST("/resume", studentHandler.UploadResume)
		student.GET("/resume", studentHandler.ResumeURL)
		student.GET("/applications", studentHandler.Applications)
		student.POST("/applications", middleware.RateLimit(d.Limiter, "apply", applyLimit, limitWindow, middleware.ByUser), studentHandler.Apply)
		student.DELETE("/applications/:id", studentHandler.Withdraw)
		student.GET("/interviews", studentHandler.Interviews)
		student.GET("/matches", studentHandler.Matches)
		student.POST("/matches/refresh", studentHandler.RefreshMatches)
		student.POST("/cover-letter", studentHandler.CoverLetter)

		employer := api.Group("/employer", requireAuth, middleware.RequireRole(models.RoleEmployer))
		employer.POST("/register", employerHandler.Register)
		employer.GET("/profile", employerHandler.Profile)
		employer.PUT("/profile", employerHandler.UpdateProfile)
		employer.POST("/logo", employerHandler.UploadLogo)
		employer.POST("/jobs/extract", jobHandler.ParseJob)
		employer.POST("/jobs", jobHandler.CreateJob)
		employer.GET("/jobs", jobHandler.ListMine)
		employer.PUT("/jobs/:id", jobHandler.UpdateJob)
		employer.PATCH("/jobs/:id/status", jobHandler.SetStatus)
		employer.DELETE("/jobs/:id", jobHandler.DeleteJob)
		employer.GET("/jobs/:id/applications", jobHandler.Applicants)
		employer.GET("/jobs/:id/candidates", jobHandler.Candidates)
		employer.PATCH("/applications/:id/status", employerHandler.UpdateApplicationStatus)
		employer.POST("/interviews", employerHandler.ScheduleInterview)
		employer.GET("/interviews", employerHandler.Interviews)
		employer.PUT("/interviews/:id", employerHandler.UpdateInterview)
		employer.DELETE("/interviews/:id", employerHandler.CancelInterview)

		admin := api.Group("/admin", requireAuth, middleware.RequireRole(models.RoleAdmin))
		admin.GET("/employers", adminHandler.Employers)
		admin.PATCH("/employers/:id/verification", adminHandler.SetVerification)
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/users", adminHandler.Users)
		admin.DELETE("/jobs/:id", adminHandler.DeleteJob)
	}

	pages := r.Group("/", middleware.GuardPages(d.Tokens))
	{
		pages.GET("/student/dashboard", pageHandler.StudentDashboard)
		pages.GET("/employer/dashboard", pageHandler.EmployerDashboard)
		pages.GET("/admin/dashboard", pageHandler.AdminDashboard)
	}
	r.GET(middleware.LoginPath, pageHandler.Login)
	r.GET(middleware.ForbiddenPath, pageHandler.Forbidden)

	if d.Files != nil {
		r.GET("/files/*key", pageHandler.File)
	}
	return r
}
