package auth

import (
	"github.com/angelmondragon/kitstore-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the customer sign-up payload.
type RegisterRequest struct {
	FirstName string  `json:"firstName" validate:"required,max=80"`
	LastName  string  `json:"lastName" validate:"required,max=80"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// TokenResponse contains the tokens and user produced by login or registration.
type TokenResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         *users.UserDTO `json:"user"`
}
