package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/m1z23r/nikode-sync/internal/database"
	"github.com/m1z23r/nikode-sync/internal/models"
)

var (
	ErrGroupExists    = errors.New("group already exists")
	ErrGroupNotFound  = errors.New("group not found")
	ErrMemberExists   = errors.New("user is already a member of the group")
	ErrMemberNotFound = errors.New("user is not a member of the group")
)

type GroupService struct {
	db *database.DB
}

func NewGroupService(db *database.DB) *GroupService {
	return &GroupService{db: db}
}

func (s *GroupService) Create(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO groups (id)
		VALUES ($1)
		ON CONFLICT (id) DO NOTHING
		RETURNING id, created_at
	`, id).Scan(&group.ID, &group.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGroupExists
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// Delete removes the group; memberships go with it via the foreign key
// cascade.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGroupNotFound
	}
	return nil
}

func (s *GroupService) AddMember(ctx context.Context, userID, groupID string) (*models.GroupMember, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM groups WHERE id = $1)`, groupID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrGroupNotFound
	}

	var member models.GroupMember
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO group_members (user_id, group_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, group_id) DO NOTHING
		RETURNING id, user_id, group_id, created_at
	`, userID, groupID).Scan(&member.ID, &member.UserID, &member.GroupID, &member.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMemberExists
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *GroupService) RemoveMember(ctx context.Context, userID, groupID string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM group_members WHERE user_id = $1 AND group_id = $2
	`, userID, groupID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// GroupsOf returns the ids of every group the user belongs to, for
// building the permission-check subject.
func (s *GroupService) GroupsOf(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT group_id FROM group_members WHERE user_id = $1 ORDER BY group_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		groups = append(groups, id)
	}
	return groups, rows.Err()
}
