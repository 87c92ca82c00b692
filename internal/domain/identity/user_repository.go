package identity

import "context"

// UserRepository stores rider accounts
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create fails with ALREADY_EXISTS for a taken email
	Create(ctx context.Context, u *User) error
	Delete(ctx context.Context, email string) error
}
