package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/e9g9o9r9/chitai-admin/internal/auth"
	"github.com/e9g9o9r9/chitai-admin/internal/models"
)

// CreateUserRequest represents a request to create a new user
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" validate:"userrole"`
}

// listUsers lists all users (admin only)
func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		respondWithMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	details := make([]UserDetail, len(users))
	for i := range users {
		details[i] = newUserDetail(&users[i])
	}

	c.JSON(http.StatusOK, details)
}

// createUser creates a new user (admin only). The role defaults to user.
func (s *Server) createUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if err := s.validator.Struct(&req); err != nil {
		respondWithMessage(c, http.StatusBadRequest, "Role must be admin or user")
		return
	}

	user, err := s.createAccount(req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		if isUniqueViolation(err) {
			respondWithMessage(c, http.StatusConflict, "User already exists")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to create user")
		respondWithMessage(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("role", user.Role).
		Str("created_by", sessionData.UserID).
		Msg("User created")

	c.JSON(http.StatusCreated, gin.H{"user": newUserDetail(user)})
}

func (s *Server) createAccount(email, password, name, role string) (*models.User, error) {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
