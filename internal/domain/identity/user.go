// Package identity holds rider accounts keyed by email address.
package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/movr/backend/internal/domain/shared"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is a registered rider. Accounts have no update operation; they are
// created on registration and removed on request.
type User struct {
	Email        string
	FirstName    string
	LastName     string
	PhoneNumbers []string
}

// NewUser validates a registration
func NewUser(email, firstName, lastName string, phoneNumbers []string) (User, error) {
	email = NormalizeEmail(email)
	v := &shared.ValidationError{}
	v.Check(email != "", "Email is required")
	v.Check(email == "" || emailPattern.MatchString(email), "Invalid email format")
	v.Check(len(email) <= 200, "Email cannot exceed 200 characters")
	v.Check(strings.TrimSpace(firstName) != "", "First name is required")
	v.Check(strings.TrimSpace(lastName) != "", "Last name is required")
	if err := v.Err(); err != nil {
		return User{}, err
	}

	phones := make([]string, 0, len(phoneNumbers))
	for _, p := range phoneNumbers {
		if p = strings.TrimSpace(p); p != "" {
			phones = append(phones, p)
		}
	}
	return User{
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PhoneNumbers: phones,
	}, nil
}

// NormalizeEmail trims and lower-cases an address so lookups are stable
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ErrUserNotFound is returned when no account has the given email
func ErrUserNotFound(email string) error {
	return shared.NotFound(fmt.Sprintf("No user found with email %s", email))
}

// ErrUserExists is returned on duplicate registration
var ErrUserExists = shared.NewDomainError(shared.CodeAlreadyExists, "User not created: user already exists")
