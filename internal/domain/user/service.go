package user

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
)

type Service struct {
	repo      Repository
	observers []AuthObserver
}

func NewService(repo Repository, observers ...AuthObserver) *Service {
	return &Service{repo: repo, observers: observers}
}

// Register creates an account and logs the new user in, so a successful
// signup raises a login event.
func (s *Service) Register(ctx context.Context, username, password, ip string) (*User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password required")
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         "user",
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	for _, o := range s.observers {
		o.LoginSucceeded(u.Username, ip)
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, username, password, ip string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		s.notifyFailed(username, ip)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.notifyFailed(username, ip)
		return nil, ErrInvalidCredentials
	}

	for _, o := range s.observers {
		o.LoginSucceeded(u.Username, ip)
	}
	return u, nil
}

// Logout has no server-side session to tear down; it exists to raise the
// logout event for auditing.
func (s *Service) Logout(ctx context.Context, id int64, ip string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	for _, o := range s.observers {
		o.LoggedOut(u.Username, ip)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) notifyFailed(username, ip string) {
	for _, o := range s.observers {
		o.LoginFailed(username, ip)
	}
}
