package services

import (
	"time"

	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// RegisterInput is a self-registration request. Role is not part of it.
type RegisterInput struct {
	Handle      string `json:"handle" validate:"required,min=3,max=64,handle"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	DisplayName string `json:"display_name" validate:"max=128"`
	Phone       string `json:"phone" validate:"max=32"`
}

type LoginInput struct {
	Handle   string `json:"handle" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate lists what an account may change about itself. Nil fields
// are left unchanged.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name" validate:"omitnil,max=128"`
	Phone       *string `json:"phone" validate:"omitnil,max=32"`
	Password    *string `json:"password" validate:"omitnil,min=6,max=72"`
}

// AdminUpdate lists what an administrator may change about any account.
type AdminUpdate struct {
	Role        *models.Role `json:"role" validate:"omitnil,oneof=user admin"`
	IsActive    *bool        `json:"is_active"`
	DisplayName *string      `json:"display_name" validate:"omitnil,max=128"`
	Phone       *string      `json:"phone" validate:"omitnil,max=32"`
}

// AuthResult is returned by every operation that issues credentials.
type AuthResult struct {
	AccessToken  string               `json:"access_token"`
	TokenType    string               `json:"token_type"`
	ExpiresAt    time.Time            `json:"expires_at"`
	RefreshToken string               `json:"refresh_token"`
	Account      models.PublicAccount `json:"account"`
}

// AccountPage is one page of the administrative account listing.
type AccountPage struct {
	Accounts []models.PublicAccount `json:"accounts"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PerPage  int                    `json:"per_page"`
	Pages    int                    `json:"pages"`
}

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

type pageQuery struct {
	Page    int `json:"page" validate:"gte=1"`
	PerPage int `json:"per_page" validate:"gte=1,lte=100"`
}
