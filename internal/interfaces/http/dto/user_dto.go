package dto

import (
	identityapp "github.com/movr/backend/internal/application/identity"
	"github.com/movr/backend/internal/domain/identity"
)

// RegisterUserRequest is the body of POST /users
type RegisterUserRequest struct {
	Email        string   `json:"email" binding:"required,email,max=200"`
	FirstName    string   `json:"first_name" binding:"required,max=100"`
	LastName     string   `json:"last_name" binding:"required,max=100"`
	PhoneNumbers []string `json:"phone_numbers" binding:"omitempty,dive,max=30"`
}

// ToInput converts the request to service input
func (r RegisterUserRequest) ToInput() identityapp.RegisterInput {
	return identityapp.RegisterInput{
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PhoneNumbers: r.PhoneNumbers,
	}
}

// LoginRequest is the body of POST /users/login
type LoginRequest struct {
	Email string `json:"email" binding:"required"`
}

// EmailQuery binds the email query parameter. Emptiness is reported by
// the service with its own message.
type EmailQuery struct {
	Email string `form:"email"`
}

// UserResponse is the wire form of a user
type UserResponse struct {
	Email        string   `json:"email"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	PhoneNumbers []string `json:"phone_numbers"`
}

// NewUserResponse converts a domain user
func NewUserResponse(u *identity.User) UserResponse {
	phones := u.PhoneNumbers
	if phones == nil {
		phones = []string{}
	}
	return UserResponse{
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PhoneNumbers: phones,
	}
}

// RegisteredUserResponse is returned by POST /users
type RegisteredUserResponse struct {
	User     UserResponse `json:"user"`
	Messages []string     `json:"messages"`
}
