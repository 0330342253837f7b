// internal/repository/memory_repository.go
package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"link-service/internal/model"
)

// memoryLinkRepository keeps links in process memory. It backs the service
// when no database is configured and stands in for postgres in tests.
type memoryLinkRepository struct {
	mu    sync.RWMutex
	links map[uuid.UUID]*model.Link
}

// NewMemoryLinkRepository creates an empty in-memory link repository
func NewMemoryLinkRepository() LinkRepository {
	return &memoryLinkRepository{links: make(map[uuid.UUID]*model.Link)}
}

func copyLink(l *model.Link) *model.Link {
	c := *l
	if l.Metadata != nil {
		c.Metadata = make(model.JSONObject, len(l.Metadata))
		for k, v := range l.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func (r *memoryLinkRepository) nameTaken(name string, except uuid.UUID) bool {
	for id, l := range r.links {
		if id != except && l.Name == name {
			return true
		}
	}
	return false
}

func (r *memoryLinkRepository) Create(ctx context.Context, link *model.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(link.Name, uuid.Nil) {
		return fmt.Errorf("%w: %s", ErrLinkExists, link.Name)
	}

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now

	r.links[link.ID] = copyLink(link)
	return nil
}

func (r *memoryLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLinkNotFound, id)
	}
	return copyLink(link), nil
}

func (r *memoryLinkRepository) GetByName(ctx context.Context, name string) (*model.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, link := range r.links {
		if link.Name == name {
			return copyLink(link), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLinkNotFound, name)
}

func (r *memoryLinkRepository) Update(ctx context.Context, link *model.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.links[link.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrLinkNotFound, link.ID)
	}
	if r.nameTaken(link.Name, link.ID) {
		return fmt.Errorf("%w: %s", ErrLinkExists, link.Name)
	}

	link.CreatedAt = existing.CreatedAt
	link.UpdatedAt = time.Now().UTC()
	r.links[link.ID] = copyLink(link)
	return nil
}

func (r *memoryLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[id]; !ok {
		return fmt.Errorf("%w: %s", ErrLinkNotFound, id)
	}
	delete(r.links, id)
	return nil
}

func (r *memoryLinkRepository) List(ctx context.Context, filter *LinkFilter) ([]*model.Link, int, error) {
	if filter == nil {
		filter = &LinkFilter{}
	}
	filter.Normalize()

	r.mu.RLock()
	matched := make([]*model.Link, 0, len(r.links))
	for _, link := range r.links {
		if filter.SearchTerm != nil && *filter.SearchTerm != "" {
			term := strings.ToLower(*filter.SearchTerm)
			desc := ""
			if link.Description != nil {
				desc = strings.ToLower(*link.Description)
			}
			if !strings.Contains(strings.ToLower(link.Name), term) && !strings.Contains(desc, term) {
				continue
			}
		}
		if filter.Scheme != nil && *filter.Scheme != "" && !strings.HasPrefix(link.URI, *filter.Scheme+"://") {
			continue
		}
		matched = append(matched, copyLink(link))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	start := (filter.Page - 1) * filter.PerPage
	if start >= total {
		return []*model.Link{}, total, nil
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}
