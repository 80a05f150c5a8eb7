package internal

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Registrations *RegistrationService
	Questions     *QuestionService
	Exporter      *Exporter
	Gate          *AdminGate
	Metrics       *Metrics
	Log           *slog.Logger

	AllowedOrigins    []string
	AdminAuthRequired bool
	CookieSecure      bool
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(d.Log, d.Metrics), CORS(d.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api")
	{
		api.POST("/register", Register(d.Registrations, d.Log))
		api.GET("/confirm-email", ConfirmEmail(d.Registrations, d.Log))
		api.POST("/question", SubmitQuestion(d.Questions, d.Log))
		api.POST("/login", Login(d.Gate, d.CookieSecure, d.Log))

		// dashboard
		admin := api.Group("")
		if d.AdminAuthRequired {
			admin.Use(RequireAdmin(d.Gate))
		}
		{
			admin.GET("/registrations", ListRegistrations(d.Registrations, d.Log))
			admin.PUT("/registrations/:id", UpdateRegistration(d.Registrations, d.Log))
			admin.DELETE("/registrations/:id", DeleteRegistration(d.Registrations, d.Log))
			admin.POST("/resend-email/:id", ResendEmail(d.Registrations, d.Log))

			admin.GET("/questions", ListQuestions(d.Questions, d.Log))
			admin.DELETE("/questions/:id", DeleteQuestion(d.Questions, d.Log))

			admin.GET("/export/registrations", Export(d.Exporter, CollectionRegistrations, d.Log))
			admin.GET("/export/questions", Export(d.Exporter, CollectionQuestions, d.Log))
		}
	}

	return r
}
