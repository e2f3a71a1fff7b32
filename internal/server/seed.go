package server

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/e9g9o9r9/chitai-admin/internal/models"
)

// SeedUser is one account of the seed file
type SeedUser struct {
	Email    string `yaml:"email" validate:"required,email"`
	Password string `yaml:"password" validate:"required,min=6"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role" validate:"userrole"`
}

type seedFile struct {
	Users []SeedUser `yaml:"users"`
}

// LoadSeedFile reads a YAML file of the form
//
//	users:
//	  - email: admin@example.com
//	    password: secret1
//	    name: Admin
//	    role: admin
func LoadSeedFile(path string) ([]SeedUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	return f.Users, nil
}

// SeedUsers creates the given accounts. Existing emails are left untouched.
func (s *Server) SeedUsers(users []SeedUser) error {
	for i, u := range users {
		if u.Role == "" {
			u.Role = models.RoleUser
		}
		if err := s.validator.Struct(&u); err != nil {
			return fmt.Errorf("invalid seed user #%d (%s): %w", i+1, u.Email, err)
		}

		var existing models.User
		err := s.db.Where("email = ?", u.Email).First(&existing).Error
		if err == nil {
			s.logger.Debug().Str("email", u.Email).Msg("Seed user already exists")
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up seed user %s: %w", u.Email, err)
		}

		user, err := s.createAccount(u.Email, u.Password, u.Name, u.Role)
		if err != nil {
			return fmt.Errorf("failed to create seed user %s: %w", u.Email, err)
		}
		s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Str("role", user.Role).Msg("Seed user created")
	}
	return nil
}
