// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"link-service/internal/model"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrLinkExists   = errors.New("link name already exists")
)

// LinkRepository defines link profile data access operations
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Link, error)
	GetByName(ctx context.Context, name string) (*model.Link, error)
	Update(ctx context.Context, link *model.Link) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *LinkFilter) ([]*model.Link, int, error)
}

// LinkFilter represents link listing filters
type LinkFilter struct {
	SearchTerm *string `json:"search_term,omitempty"`
	Scheme     *string `json:"scheme,omitempty"`
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
}

// Normalize clamps paging to sane bounds
func (f *LinkFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}
}
