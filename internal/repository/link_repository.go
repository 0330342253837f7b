// internal/repository/link_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"link-service/internal/database"
	"link-service/internal/model"
)

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

// linkRepository implements LinkRepository on postgres
type linkRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *database.DB, logger *zap.Logger) LinkRepository {
	return &linkRepository{
		db:     db,
		logger: logger.With(zap.String("repository", "links")),
	}
}

const linkColumns = `id, name, uri, description, metadata, created_at, updated_at`

func scanLink(row interface{ Scan(...interface{}) error }) (*model.Link, error) {
	link := &model.Link{}
	err := row.Scan(
		&link.ID, &link.Name, &link.URI, &link.Description,
		&link.Metadata, &link.CreatedAt, &link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return link, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// Create inserts a new link
func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	query := `
		INSERT INTO links (id, name, uri, description, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now().UTC()
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	link.CreatedAt = now
	link.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		link.ID, link.Name, link.URI, link.Description, link.Metadata,
		link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrLinkExists, link.Name)
		}
		r.logger.Error("Failed to create link", zap.Error(err), zap.String("name", link.Name))
		return fmt.Errorf("failed to create link: %w", err)
	}

	r.logger.Info("Link created", zap.String("name", link.Name), zap.String("id", link.ID.String()))
	return nil
}

// GetByID retrieves a link by id
func (r *linkRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrLinkNotFound, id)
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

// GetByName retrieves a link by its unique name
func (r *linkRepository) GetByName(ctx context.Context, name string) (*model.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE name = $1`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrLinkNotFound, name)
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

// Update replaces a link's mutable fields
func (r *linkRepository) Update(ctx context.Context, link *model.Link) error {
	query := `
		UPDATE links
		SET name = $2, uri = $3, description = $4, metadata = $5, updated_at = $6
		WHERE id = $1
	`

	link.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		link.ID, link.Name, link.URI, link.Description, link.Metadata, link.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrLinkExists, link.Name)
		}
		r.logger.Error("Failed to update link", zap.Error(err), zap.String("id", link.ID.String()))
		return fmt.Errorf("failed to update link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrLinkNotFound, link.ID)
	}
	return nil
}

// Delete removes a link
func (r *linkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrLinkNotFound, id)
	}

	r.logger.Info("Link deleted", zap.String("id", id.String()))
	return nil
}

// List returns a page of links and the total count matching the filter
func (r *linkRepository) List(ctx context.Context, filter *LinkFilter) ([]*model.Link, int, error) {
	if filter == nil {
		filter = &LinkFilter{}
	}
	filter.Normalize()

	var conditions []string
	var args []interface{}

	if filter.SearchTerm != nil && *filter.SearchTerm != "" {
		args = append(args, "%"+*filter.SearchTerm+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if filter.Scheme != nil && *filter.Scheme != "" {
		args = append(args, *filter.Scheme+"://%")
		conditions = append(conditions, fmt.Sprintf("uri LIKE $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count links: %w", err)
	}

	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)
	query := fmt.Sprintf(`SELECT %s FROM links%s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		linkColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := make([]*model.Link, 0, filter.PerPage)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate links: %w", err)
	}

	return links, total, nil
}
