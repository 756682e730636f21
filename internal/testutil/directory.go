package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bizdash/bizdash/internal/model"
	"github.com/bizdash/bizdash/internal/repository"
)

// MemoryDirectory is an in-memory user directory with the same error
// contract as *repository.Repository. Emails are unique case-insensitively.
type MemoryDirectory struct {
	mu    sync.Mutex
	users []*model.User
	seq   int
}

// NewMemoryDirectory returns an empty MemoryDirectory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{}
}

// GetUserByEmail returns a copy of the matching user or repository.ErrUserNotFound.
func (d *MemoryDirectory) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// CreateUser stores a user or fails with repository.ErrEmailExists.
func (d *MemoryDirectory) CreateUser(_ context.Context, name, email, passwordHash string) (*model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			return nil, repository.ErrEmailExists
		}
	}
	d.seq++
	now := time.Now().UTC()
	u := &model.User{
		ID:           fmt.Sprintf("user-%04d", d.seq),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.users = append(d.users, u)
	cp := *u
	return &cp, nil
}

// ListUsers returns copies of all users in insertion order.
func (d *MemoryDirectory) ListUsers(_ context.Context) ([]*model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*model.User, 0, len(d.users))
	for _, u := range d.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

// Ping always succeeds.
func (d *MemoryDirectory) Ping(context.Context) error {
	return nil
}
