package user_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-system/auth"
	"realty-system/user"
)

func setup(t *testing.T) (*user.Accessor, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return user.NewAccessor(db), dbMock
}

func TestValidate(t *testing.T) {
	valid := user.User{Name: "Bob", Surname: "Buyer", Email: "bob@example.com", Role: auth.RoleBuyer}

	t.Run("valid user", func(t *testing.T) {
		require.NoError(t, valid.Validate())
	})

	t.Run("short name", func(t *testing.T) {
		u := valid
		u.Name = "B"
		require.Error(t, u.Validate())
	})

	t.Run("whitespace surname", func(t *testing.T) {
		u := valid
		u.Surname = "  "
		require.Error(t, u.Validate())
	})

	t.Run("bad email", func(t *testing.T) {
		u := valid
		u.Email = "bob.example.com"
		require.Error(t, u.Validate())
	})

	t.Run("admin cannot self-register", func(t *testing.T) {
		u := valid
		u.Role = auth.RoleAdmin
		require.Error(t, u.Validate())
	})
}

func TestCreate(t *testing.T) {
	payload := user.User{
		Name:         "Bob",
		Surname:      "Buyer",
		Email:        "bob@example.com",
		PasswordHash: "$2a$10$fakehash",
		Phone:        "0601020304",
		Role:         auth.RoleBuyer,
	}

	t.Run("inserts and returns generated fields", func(t *testing.T) {
		a, dbMock := setup(t)
		now := time.Now()

		dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs(payload.Name, payload.Surname, payload.Email, payload.PasswordHash, payload.Phone, payload.Role).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).AddRow(1, "active", now))

		created, err := a.Create(context.Background(), payload)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		assert.Equal(t, user.StatusActive, created.Status)
		assert.Equal(t, now, created.CreatedAt)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs(payload.Name, payload.Surname, payload.Email, payload.PasswordHash, payload.Phone, payload.Role).
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := a.Create(context.Background(), payload)
		require.ErrorIs(t, err, user.ErrEmailTaken)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("invalid payload never reaches the database", func(t *testing.T) {
		a, dbMock := setup(t)

		bad := payload
		bad.Email = "not-an-email"
		_, err := a.Create(context.Background(), bad)
		require.Error(t, err)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		name   string
		status any
		want   bool
	}{
		{"active user", "active", true},
		{"suspended user", "suspended", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, dbMock := setup(t)

			dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM users WHERE id = $1`)).
				WithArgs(int64(1)).
				WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(tt.status))

			active, err := a.IsActive(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, active)

			require.NoError(t, dbMock.ExpectationsWereMet())
		})
	}

	t.Run("unknown user", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM users WHERE id = $1`)).
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		active, err := a.IsActive(context.Background(), 404)
		require.NoError(t, err)
		assert.False(t, active)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("suspends a user", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET status = $1 WHERE id = $2`)).
			WithArgs(user.StatusSuspended, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, a.UpdateStatus(context.Background(), 3, user.StatusSuspended))
		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET status = $1 WHERE id = $2`)).
			WithArgs(user.StatusSuspended, int64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := a.UpdateStatus(context.Background(), 404, user.StatusSuspended)
		require.ErrorIs(t, err, sql.ErrNoRows)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})
}
