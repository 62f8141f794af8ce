package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, g Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertGroup := `INSERT INTO groups (id, name, created_at) VALUES ($1, $2, $3)`
	_, err = tx.ExecContext(ctx, insertGroup, g.ID, g.Name, g.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrGroupNameTaken, g.Name)
		}
		return fmt.Errorf("inserting group: %w", err)
	}

	if err := insertMembers(ctx, tx, g.ID, g.MemberIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// AddMembers is idempotent: users already in the group are skipped.
func (r *repository) AddMembers(ctx context.Context, groupID string, userIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertMembers(ctx, tx, groupID, userIDs); err != nil {
		return err
	}

	return tx.Commit()
}

func insertMembers(ctx context.Context, tx *sql.Tx, groupID string, userIDs []string) error {
	query := `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2) ON CONFLICT (group_id, user_id) DO NOTHING`
	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx, query, groupID, userID); err != nil {
			return fmt.Errorf("inserting group member: %w", err)
		}
	}
	return nil
}

func (r *repository) List(ctx context.Context) ([]Group, error) {
	query := `SELECT id, name, created_at FROM groups ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	groups := make([]Group, 0)
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		members, err := r.members(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].MemberIDs = members
	}

	return groups, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Group, error) {
	return r.getOne(ctx, `SELECT id, name, created_at FROM groups WHERE id = $1`, id)
}

// GetByName matches case-insensitively.
func (r *repository) GetByName(ctx context.Context, name string) (*Group, error) {
	return r.getOne(ctx, `SELECT id, name, created_at FROM groups WHERE LOWER(name) = LOWER($1)`, name)
}

func (r *repository) getOne(ctx context.Context, query string, arg string) (*Group, error) {
	var g Group
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	members, err := r.members(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	g.MemberIDs = members

	return &g, nil
}

func (r *repository) members(ctx context.Context, groupID string) ([]string, error) {
	query := `SELECT user_id FROM group_members WHERE group_id = $1 ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("querying group members: %w", err)
	}
	defer rows.Close()

	members := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}

	return members, rows.Err()
}
