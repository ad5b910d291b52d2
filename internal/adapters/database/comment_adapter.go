package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/repositories"
	"github.com/streetlives/streetlives-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
)

var commentColumns = []interface{}{
	"id", "location_id", "content", "posted_by", "contact_info", "hidden", "reply_to_id", "created_at", "updated_at",
}

// CommentAdapter implements the CommentRepository interface
type CommentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCommentAdapter creates a new comment adapter
func NewCommentAdapter(client *postgres.Client) repositories.CommentRepository {
	return &CommentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func scanComment(row scanner) (*entities.Comment, error) {
	c := &entities.Comment{}
	err := row.Scan(&c.ID, &c.LocationID, &c.Content, &c.PostedBy, &c.ContactInfo, &c.Hidden, &c.ReplyToID,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListForLocation returns visible top-level comments with visible replies, newest first
func (a *CommentAdapter) ListForLocation(ctx context.Context, locationID string) ([]*entities.Comment, error) {
	return loadVisibleComments(ctx, a.client.DB(), locationID)
}

// loadVisibleComments returns the non-hidden top-level comments of a location,
// newest first, each with its non-hidden replies oldest first
func loadVisibleComments(ctx context.Context, q queryer, locationID string) ([]*entities.Comment, error) {
	ds := dialect.From("comments").
		Select(commentColumns...).
		Where(goqu.Ex{"location_id": locationID}, goqu.C("hidden").IsNotTrue()).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Asc())

	var all []*entities.Comment
	err := queryRows(ctx, q, ds, "comments", func(row scanner) error {
		c, err := scanComment(row)
		if err != nil {
			return err
		}
		all = append(all, c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	topLevel := make([]*entities.Comment, 0, len(all))
	byID := make(map[string]*entities.Comment, len(all))
	for _, c := range all {
		if c.ReplyToID == nil {
			topLevel = append(topLevel, c)
			byID[c.ID] = c
		}
	}
	// Replies arrive newest first; walk backwards to attach them oldest first.
	for i := len(all) - 1; i >= 0; i-- {
		c := all[i]
		if c.ReplyToID == nil {
			continue
		}
		if parent, ok := byID[*c.ReplyToID]; ok {
			parent.Replies = append(parent.Replies, c)
		}
	}
	return topLevel, nil
}

// GetByID retrieves a comment by ID
func (a *CommentAdapter) GetByID(ctx context.Context, id string) (*entities.Comment, error) {
	query, args, err := a.db.From("comments").
		Select(commentColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	c, err := scanComment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("comment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get comment", err)
	}
	return c, nil
}

// Create creates a new comment
func (a *CommentAdapter) Create(ctx context.Context, c *entities.Comment) error {
	record := goqu.Record{
		"id":           c.ID,
		"location_id":  c.LocationID,
		"content":      c.Content,
		"posted_by":    c.PostedBy,
		"contact_info": c.ContactInfo,
		"hidden":       c.Hidden,
		"reply_to_id":  c.ReplyToID,
		"created_at":   c.CreatedAt,
		"updated_at":   c.UpdatedAt,
	}

	query, args, err := a.db.Insert("comments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create comment", err)
	}
	return nil
}
