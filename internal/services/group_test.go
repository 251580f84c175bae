package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m1z23r/nikode-sync/internal/database"
)

func setupGroupService(t *testing.T) (*GroupService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewGroupService(db), mock
}

func TestGroupService_Create(t *testing.T) {
	svc, mock := setupGroupService(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO groups`).
		WithArgs("editors").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("editors", now))

	group, err := svc.Create(ctx, "editors")

	require.NoError(t, err)
	assert.Equal(t, "editors", group.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupService_Create_Duplicate(t *testing.T) {
	svc, mock := setupGroupService(t)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO groups`).
		WithArgs("editors").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}))

	_, err := svc.Create(ctx, "editors")

	assert.ErrorIs(t, err, ErrGroupExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupService_Delete_NotFound(t *testing.T) {
	svc, mock := setupGroupService(t)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM groups`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := svc.Delete(ctx, "missing")

	assert.ErrorIs(t, err, ErrGroupNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupService_AddMember(t *testing.T) {
	svc, mock := setupGroupService(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("editors").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO group_members`).
		WithArgs("alice", "editors").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "group_id", "created_at"}).
			AddRow(uuid.New(), "alice", "editors", now))

	member, err := svc.AddMember(ctx, "alice", "editors")

	require.NoError(t, err)
	assert.Equal(t, "alice", member.UserID)
	assert.Equal(t, "editors", member.GroupID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupService_AddMember_UnknownGroup(t *testing.T) {
	svc, mock := setupGroupService(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.AddMember(ctx, "alice", "missing")

	assert.ErrorIs(t, err, ErrGroupNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupService_AddMember_Duplicate(t *testing.T) {
	svc, mock := setupGroupService(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("editors").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO group_members`).
		WithArgs("alice", "editors").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "group_id", "created_at"}))

	_, err := svc.AddMember(ctx, "alice", "editors")

	assert.ErrorIs(t, err, ErrMemberExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupService_RemoveMember_NotFound(t *testing.T) {
	svc, mock := setupGroupService(t)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM group_members`).
		WithArgs("alice", "editors").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := svc.RemoveMember(ctx, "alice", "editors")

	assert.ErrorIs(t, err, ErrMemberNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupService_GroupsOf(t *testing.T) {
	svc, mock := setupGroupService(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT group_id FROM group_members`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"group_id"}).
			AddRow("editors").
			AddRow("viewers"))

	groups, err := svc.GroupsOf(ctx, "alice")

	require.NoError(t, err)
	assert.Equal(t, []string{"editors", "viewers"}, groups)
	assert.NoError(t, mock.ExpectationsWereMet())
}
