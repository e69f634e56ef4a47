package user

import (
	"context"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

// AuthObserver receives authentication events. Observers are invoked
// synchronously by the service, in registration order.
type AuthObserver interface {
	LoginSucceeded(username, ip string)
	LoginFailed(username, ip string)
	LoggedOut(username, ip string)
}
