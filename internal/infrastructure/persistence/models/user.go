package models

import (
	"github.com/lib/pq"

	"github.com/movr/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User entity
type UserModel struct {
	Email        string         `gorm:"type:varchar(200);primaryKey"`
	FirstName    string         `gorm:"type:varchar(100);not null"`
	LastName     string         `gorm:"type:varchar(100);not null"`
	PhoneNumbers pq.StringArray `gorm:"type:text[]"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	phones := make([]string, len(m.PhoneNumbers))
	copy(phones, m.PhoneNumbers)
	return &identity.User{
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PhoneNumbers: phones,
	}
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.Email = u.Email
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.PhoneNumbers = pq.StringArray(u.PhoneNumbers)
}
