package internal

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const htmlContentType = "text/html; charset=utf-8"

// respondError maps service errors to a status and a client-safe message.
// Anything unexpected is logged and reported as a generic 500.
func respondError(c *gin.Context, log *slog.Logger, notFoundMsg string, err error) {
	var fe FieldError
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusBadRequest, gin.H{"message": fe.Error()})
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundMsg})
	default:
		log.Error("request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

// ------------------- Registrations -------------------

func Register(svc *RegistrationService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form RegistrationForm
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
			return
		}
		log.Info("registration.incoming", "email", form.Email)

		reg, err := svc.Register(c.Request.Context(), form)
		if err != nil {
			respondError(c, log, "", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Registration successful", "id": reg.ID})
	}
}

func ResendEmail(svc *RegistrationService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Resend(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, log, "Registration not found", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Email resent successfully"})
	}
}

func ListRegistrations(svc *RegistrationService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		regs, err := svc.List(c.Request.Context())
		if err != nil {
			log.Error("list registrations", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error reading database"})
			return
		}
		c.JSON(http.StatusOK, regs)
	}
}

func UpdateRegistration(svc *RegistrationService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch map[string]json.RawMessage
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
			return
		}
		reg, err := svc.Update(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			respondError(c, log, "Registration not found", err)
			return
		}
		c.JSON(http.StatusOK, reg)
	}
}

func DeleteRegistration(svc *RegistrationService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, log, "Registration not found", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Registration deleted successfully"})
	}
}

// GET /api/confirm-email?token=...  (HTML responses, opened from the email)
func ConfirmEmail(svc *RegistrationService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg, already, err := svc.Confirm(c.Request.Context(), c.Query("token"))
		switch {
		case errors.Is(err, ErrValidation):
			c.Data(http.StatusBadRequest, htmlContentType, []byte("Invalid token"))
			return
		case errors.Is(err, ErrNotFound):
			c.Data(http.StatusNotFound, htmlContentType, []byte("Registration not found or invalid token"))
			return
		case err != nil:
			log.Error("confirm email", "err", err)
			c.Data(http.StatusInternalServerError, htmlContentType, []byte("Internal server error"))
			return
		}

		if already {
			c.Data(http.StatusOK, htmlContentType, []byte(alreadyConfirmedPage))
			return
		}
		page, err := renderConfirmedPage(reg)
		if err != nil {
			log.Error("render confirmed page", "err", err)
			c.Data(http.StatusInternalServerError, htmlContentType, []byte("Internal server error"))
			return
		}
		c.Data(http.StatusOK, htmlContentType, page)
	}
}

// ------------------- Questions -------------------

func SubmitQuestion(svc *QuestionService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
			Text  string `json:"text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
			return
		}
		q, err := svc.Submit(c.Request.Context(), req.Email, req.Text)
		if err != nil {
			respondError(c, log, "", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Question submitted successfully", "id": q.ID})
	}
}

func ListQuestions(svc *QuestionService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		qs, err := svc.List(c.Request.Context())
		if err != nil {
			log.Error("list questions", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error reading database"})
			return
		}
		c.JSON(http.StatusOK, qs)
	}
}

func DeleteQuestion(svc *QuestionService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, log, "Question not found", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
	}
}

// ------------------- Admin -------------------

func Login(gate *AdminGate, secureCookie bool, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
			return
		}

		token, err := gate.Login(req.Username, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			log.Warn("login.rejected", "username", req.Username)
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		if err != nil {
			respondError(c, log, "", err)
			return
		}

		c.SetCookie(cookieName, token, int(gate.TTL().Seconds()), "/", "", secureCookie, true)
		logAction(log, "login", "username", req.Username)
		c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token})
	}
}

func Export(exp *Exporter, collection string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filename, data, err := exp.Export(c.Request.Context(), collection)
		if err != nil {
			log.Error("export", "collection", collection, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Data(http.StatusOK, xlsxContentType, data)
	}
}
