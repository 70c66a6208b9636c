package repository

import (
	"context"
	"database/sql"

	"github.com/mehdiyara/stockroom/internal/model"
)

// ActivityRepo persists the append-only audit log.  Rows are only ever
// inserted and read; there are no update or delete statements here on
// purpose.
type ActivityRepo struct{ DB *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{DB: db} }

// Insert appends one audit entry.
func (r *ActivityRepo) Insert(ctx context.Context, a *model.Activity) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO activities (id, action, entity_type, entity_id, message, performed_by) VALUES (?,?,?,?,?,?)",
		a.ID, a.Action, a.EntityType, a.EntityID, a.Message, a.PerformedBy)
	return err
}

// ListRecent returns a page of entries newest first with the performer
// name and email joined in, plus the total entry count.  Deleted
// performers keep their entries; the join degrades to empty strings.
func (r *ActivityRepo) ListRecent(ctx context.Context, page, limit int) ([]model.Activity, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 6
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT a.id, a.action, a.entity_type, a.entity_id, a.message, a.performed_by,
		 COALESCE(u.full_name, ''), COALESCE(u.email, ''), a.created_at
		 FROM activities a LEFT JOIN users u ON u.id = a.performed_by
		 ORDER BY a.created_at DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.Action, &a.EntityType, &a.EntityID, &a.Message,
			&a.PerformedBy, &a.PerformerName, &a.PerformerEmail, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
