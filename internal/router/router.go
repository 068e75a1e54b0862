package router

import (
	"net/http"
	"time"

	"github.com/examply/proctor-backend/internal/config"
	"github.com/examply/proctor-backend/internal/handler"
	"github.com/examply/proctor-backend/internal/middleware"
	"github.com/examply/proctor-backend/internal/response"
	"github.com/examply/proctor-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Student   *handler.StudentHandler
	ExamAdmin *handler.ExamAdminHandler
	Grading   *handler.GradingHandler
	Origin    *handler.OriginHandler
	Monitor   *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the student open endpoint (30 requests per minute per IP).
	openLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/teacher/login", handlers.Auth.TeacherLogin)
		auth.GET("/teacher/me", middleware.RequireTeacherJWT(authService), handlers.Auth.GetTeacherProfile)
	}

	// ─── 2. Student Group ──────────────────────────────────────────────
	// Open is public (gated by origin trust, not credentials); everything
	// else requires the attempt token minted by Open.
	studentAPI := router.Group("/api/v1/student")
	{
		studentAPI.POST("/open", openLimiter.Middleware(), handlers.Student.Open)

		attempt := studentAPI.Group("")
		attempt.Use(middleware.RequireAttemptJWT(authService))
		{
			attempt.GET("/state", handlers.Student.State)
			attempt.POST("/drafts", handlers.Student.SaveDraft)
			attempt.POST("/submit", handlers.Student.SubmitFinal)
		}
	}

	// ─── 3. WebSocket Group (Teacher WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireTeacherWSAuth(authService))
	{
		ws.GET("/teacher/exams/:exam_id/monitor", handlers.Monitor.ExamMonitorStream)
	}

	// ─── 4. Teacher Group (JWT) ────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		// Exam authoring
		teacherAPI.POST("/exams", handlers.ExamAdmin.CreateExam)
		teacherAPI.GET("/exams", handlers.ExamAdmin.ListExams)
		teacherAPI.POST("/exams/:exam_id/activate", handlers.ExamAdmin.ActivateExam)
		teacherAPI.POST("/exams/:exam_id/variants", handlers.ExamAdmin.AddVariant)
		teacherAPI.GET("/exams/:exam_id/variants", handlers.ExamAdmin.ListVariants)
		teacherAPI.POST("/exams/:exam_id/variants/:variant_id/questions", handlers.ExamAdmin.AddQuestion)

		// Submissions and grading
		teacherAPI.GET("/exams/:exam_id/submissions", handlers.Grading.ListSubmissions)
		teacherAPI.GET("/exams/:exam_id/students/:student_number/versions", handlers.Grading.ListVersions)
		teacherAPI.GET("/submissions/:submission_id", handlers.Grading.GetSubmission)
		teacherAPI.POST("/submissions/:submission_id/grade", handlers.Grading.GradeSubmission)
		teacherAPI.GET("/grades", handlers.Grading.ListGrades)

		// Origin restrictions
		teacherAPI.GET("/origins", handlers.Origin.ListOrigins)
		teacherAPI.POST("/origins/:origin_id/state", handlers.Origin.SetOriginState)
	}

	return router
}
