// Package identity carries the authenticated user through a request.
//
// Repositories for user-owned rows only accept an Owner, so a query cannot be
// issued without the caller's id in its WHERE clause.
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidOwner = errors.New("owner id must be a valid uuid")

type Owner struct {
	userID uuid.UUID
}

type ownerKey struct{}

func NewOwner(userID string) (Owner, error) {
	id, err := uuid.Parse(userID)
	if err != nil || id == uuid.Nil {
		return Owner{}, ErrInvalidOwner
	}
	return Owner{userID: id}, nil
}

// MustOwner is meant for tests and fixtures.
func MustOwner(userID string) Owner {
	owner, err := NewOwner(userID)
	if err != nil {
		panic(err)
	}
	return owner
}

func (o Owner) UserID() uuid.UUID {
	return o.userID
}

func (o Owner) String() string {
	return o.userID.String()
}

func (o Owner) IsZero() bool {
	return o.userID == uuid.Nil
}

func WithOwner(ctx context.Context, owner Owner) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

func FromContext(ctx context.Context) (Owner, bool) {
	owner, ok := ctx.Value(ownerKey{}).(Owner)
	if !ok || owner.IsZero() {
		return Owner{}, false
	}
	return owner, true
}
