package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PRANJALBANSALJI/Kanban/internal/auth"
	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

// profileView is the JSON shape for a profile; the password hash never
// leaves the server.
type profileView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role"`
}

func viewProfile(p *models.Profile) profileView {
	return profileView{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		Role:      p.Role,
	}
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (s *server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}
	profile := models.Profile{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(req.Email),
		FullName:     req.FullName,
		PasswordHash: hash,
		Role:         "user",
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	s.issueSession(c, profile.ID)
	c.JSON(http.StatusCreated, viewProfile(&profile))
}

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (s *server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var profile models.Profile
	err := s.db.WithContext(c.Request.Context()).
		First(&profile, "email = ?", strings.ToLower(req.Email)).Error
	if err != nil || !auth.CheckPassword(profile.PasswordHash, req.Password) {
		// Same response for unknown email and bad password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	s.issueSession(c, profile.ID)
	c.JSON(http.StatusOK, viewProfile(&profile))
}

func (s *server) handleLogout(c *gin.Context) {
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (s *server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, viewProfile(auth.CurrentProfile(c)))
}

func (s *server) issueSession(c *gin.Context, userID string) {
	token, err := s.sessions.Issue(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not start session"})
		return
	}
	c.SetCookie(auth.SessionCookie, token, int(s.sessions.TTL().Seconds()), "/", "", false, true)
	c.Header("X-Session-Token", token)
}
