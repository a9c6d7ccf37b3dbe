package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// GroupRepository answers group membership questions.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// IsMember reports whether the user belongs to the group.
func (r *GroupRepository) IsMember(ctx context.Context, userID, groupID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM group_members WHERE user_id = $1 AND group_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, groupID); err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}
	return exists, nil
}
