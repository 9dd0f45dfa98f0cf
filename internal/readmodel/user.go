package readmodel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Fallback display data used when the owner of a Booking cannot be resolved.
const (
	UnknownUserName  = "Unknown User"
	UnknownUserEmail = "unknown@example.com"
)

// ErrUserNotFound is returned by a UserDirectory when no user exists with the requested id.
var ErrUserNotFound = errors.New("readmodel.UserDirectory: user not found")

// User is the display data of a registered user.
type User struct {
	ID        int
	FirstName string
	LastName  string
	Email     string
}

// DisplayName returns the full name of the user.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserDirectory resolves users by id.
type UserDirectory interface {
	LookupUser(ctx context.Context, id int) (User, error)
}

// InMemoryUserDirectory is a thread-safe, in-memory UserDirectory.
type InMemoryUserDirectory struct {
	mx    sync.RWMutex
	users map[int]User
}

// NewInMemoryUserDirectory returns a new directory containing the specified users.
func NewInMemoryUserDirectory(users ...User) *InMemoryUserDirectory {
	d := &InMemoryUserDirectory{users: make(map[int]User, len(users))}
	for _, user := range users {
		d.users[user.ID] = user
	}

	return d
}

// Add adds or replaces a user in the directory.
func (d *InMemoryUserDirectory) Add(user User) {
	d.mx.Lock()
	defer d.mx.Unlock()

	d.users[user.ID] = user
}

// LookupUser implements the UserDirectory interface.
func (d *InMemoryUserDirectory) LookupUser(_ context.Context, id int) (User, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()

	user, ok := d.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w, id %d", ErrUserNotFound, id)
	}

	return user, nil
}
