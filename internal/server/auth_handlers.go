package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/e9g9o9r9/chitai-admin/internal/auth"
	"github.com/e9g9o9r9/chitai-admin/internal/models"
)

// SetupRequest represents the first-run setup request
type SetupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// AuthResponse is returned by login, setup and check-auth. Token and
// ExpiresIn (seconds) are only set when a token is issued.
type AuthResponse struct {
	User      UserDetail `json:"user"`
	Name      string     `json:"name,omitempty"`
	Role      string     `json:"role"`
	Token     string     `json:"token,omitempty"`
	ExpiresIn int        `json:"expiresIn,omitempty"`
}

func newUserDetail(user *models.User) UserDetail {
	return UserDetail{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}

// issue builds the response carrying a fresh token for user
func (s *Server) issue(user *models.User) (AuthResponse, error) {
	token, err := s.issuer.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		User:      newUserDetail(user),
		Name:      user.Name,
		Role:      user.Role,
		Token:     token,
		ExpiresIn: int(s.issuer.TTL().Seconds()),
	}, nil
}

// setupFirstAdmin creates the first admin user. It only works while no
// users exist.
func (s *Server) setupFirstAdmin(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		respondWithMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if count > 0 {
		respondWithMessage(c, http.StatusConflict, "Setup already completed")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		respondWithMessage(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Role:         models.RoleAdmin,
	}

	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create admin user")
		respondWithMessage(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	resp, err := s.issue(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		respondWithMessage(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("First admin user created")

	c.JSON(http.StatusOK, resp)
}

// login authenticates with email and password. Any role may log in; the
// admin gate is the client's.
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithMessage(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		respondWithMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		respondWithMessage(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	resp, err := s.issue(&user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		respondWithMessage(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Str("role", user.Role).Msg("User logged in")

	c.JSON(http.StatusOK, resp)
}

// checkAuth returns the user the bearer token belongs to
func (s *Server) checkAuth(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondWithMessage(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		respondWithMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		User: newUserDetail(&user),
		Name: user.Name,
		Role: user.Role,
	})
}
