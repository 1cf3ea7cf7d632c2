package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campuscare/backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewGormStore(gdb), mock
}

func TestGetComplaint_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "complaints"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetComplaint(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetComplaint_PreloadsStudent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "complaints"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "status", "student_id"}).
			AddRow(1, "Broken printer", "Room 204 printer jams", "pending", 7))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}).
			AddRow(7, "ana@campus.edu", "student"))

	c, err := s.GetComplaint(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, c.Status)
	require.NotNil(t, c.Student)
	assert.Equal(t, "ana@campus.edu", c.Student.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateComplaintStatus(t *testing.T) {
	t.Run("applies when status matches", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "complaints" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := s.UpdateComplaintStatus(context.Background(), 1, models.StatusPending,
			map[string]interface{}{"status": models.StatusInProgress})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale when no row matched", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "complaints" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.UpdateComplaintStatus(context.Background(), 1, models.StatusPending,
			map[string]interface{}{"status": models.StatusRejected})
		assert.ErrorIs(t, err, ErrStaleStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := s.CreateUser(context.Background(), &models.User{Email: "a@campus.edu", Password: "x", Role: models.RoleStudent})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUpvote_DuplicatePair(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "upvotes"`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := s.CreateUpvote(context.Background(), &models.Upvote{UserID: 1, ComplaintID: 2})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteComplaint(t *testing.T) {
	t.Run("removes upvotes then complaint", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "upvotes"`)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "complaints"`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, s.DeleteComplaint(context.Background(), 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing complaint rolls back", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "upvotes"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "complaints"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, s.DeleteComplaint(context.Background(), 3), ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpvoteSummaries(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT complaint_id, COUNT(*) AS total`)).
		WillReturnRows(sqlmock.NewRows([]string{"complaint_id", "total", "mine"}).
			AddRow(1, 3, 1).
			AddRow(2, 1, 0))

	got, err := s.UpvoteSummaries(context.Background(), []uint{1, 2, 5}, 9)
	require.NoError(t, err)
	assert.Equal(t, UpvoteSummary{Count: 3, HasUpvoted: true}, got[1])
	assert.Equal(t, UpvoteSummary{Count: 1, HasUpvoted: false}, got[2])
	_, ok := got[5]
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpvoteSummaries_NoComplaintsSkipsQuery(t *testing.T) {
	s, mock := newMockStore(t)

	got, err := s.UpvoteSummaries(context.Background(), nil, 9)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByDepartment(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT department AS name, COUNT(*) AS count FROM "complaints"`)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "count"}).
			AddRow("IT Services", 4).
			AddRow("Library", 2))

	got, err := s.CountByDepartment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []DepartmentCount{{Name: "IT Services", Count: 4}, {Name: "Library", Count: 2}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
