package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockWalletRepository creates a GormWalletRepository with a mocked SQL connection
func newMockWalletRepository(t *testing.T) (*GormWalletRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return NewGormWalletRepository(gormDB), mock, mockDB
}

// uniqueViolation mimics the error the postgres driver returns for a
// duplicate key, which GORM translates to gorm.ErrDuplicatedKey
func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

func walletColumns() []string {
	return []string{"id", "created_at", "updated_at", "version", "user_id", "name", "type", "currency", "balance", "is_active"}
}

func TestNewGormWalletRepository(t *testing.T) {
	repo, _, mockDB := newMockWalletRepository(t)
	defer mockDB.Close()

	assert.NotNil(t, repo)
	assert.NotNil(t, repo.db)
}

func TestGormWalletRepository_FindByIDForUser(t *testing.T) {
	t.Run("finds existing wallet", func(t *testing.T) {
		repo, mock, mockDB := newMockWalletRepository(t)
		defer mockDB.Close()

		walletID := uuid.New()
		userID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(walletColumns()).
			AddRow(walletID, now, now, 1, userID, "Checking", "BANK", "USD", decimal.NewFromInt(500), true)

		mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE user_id = \$1 AND id = \$2`).
			WithArgs(userID, walletID, 1).
			WillReturnRows(rows)

		w, err := repo.FindByIDForUser(context.Background(), userID, walletID)

		assert.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, walletID, w.ID)
		assert.Equal(t, "Checking", w.Name)
		assert.True(t, w.Balance.Equal(decimal.NewFromInt(500)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing wallet", func(t *testing.T) {
		repo, mock, mockDB := newMockWalletRepository(t)
		defer mockDB.Close()

		userID := uuid.New()
		walletID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "wallets"`).
			WithArgs(userID, walletID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		w, err := repo.FindByIDForUser(context.Background(), userID, walletID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Nil(t, w)
	})
}

func TestGormWalletRepository_ApplyBalanceDelta(t *testing.T) {
	walletID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	activeWalletRow := func(balance int64) *sqlmock.Rows {
		return sqlmock.NewRows(walletColumns()).
			AddRow(walletID, now, now, 1, userID, "Checking", "BANK", "USD", decimal.NewFromInt(balance), true)
	}

	t.Run("applies delta inside one transaction", func(t *testing.T) {
		repo, mock, mockDB := newMockWalletRepository(t)
		defer mockDB.Close()

		eventID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "wallet_applied_events"`).
			WithArgs(eventID, walletID, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE id = \$1.*FOR UPDATE`).
			WithArgs(walletID, 1).
			WillReturnRows(activeWalletRow(500))
		mock.ExpectExec(`UPDATE "wallets" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.ApplyBalanceDelta(context.Background(), walletID, eventID, decimal.NewFromInt(-100))

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replayed event is a no-op", func(t *testing.T) {
		repo, mock, mockDB := newMockWalletRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "wallet_applied_events"`).
			WillReturnError(uniqueViolation())
		mock.ExpectRollback()

		err := repo.ApplyBalanceDelta(context.Background(), walletID, uuid.New(), decimal.NewFromInt(-100))

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects withdrawal that would go negative", func(t *testing.T) {
		repo, mock, mockDB := newMockWalletRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "wallet_applied_events"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE id = \$1.*FOR UPDATE`).
			WithArgs(walletID, 1).
			WillReturnRows(activeWalletRow(50))
		mock.ExpectRollback()

		err := repo.ApplyBalanceDelta(context.Background(), walletID, uuid.New(), decimal.NewFromInt(-100))

		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown wallet", func(t *testing.T) {
		repo, mock, mockDB := newMockWalletRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "wallet_applied_events"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE id = \$1.*FOR UPDATE`).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectRollback()

		err := repo.ApplyBalanceDelta(context.Background(), walletID, uuid.New(), decimal.NewFromInt(100))

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deactivated wallet rejects deltas", func(t *testing.T) {
		repo, mock, mockDB := newMockWalletRepository(t)
		defer mockDB.Close()

		inactive := sqlmock.NewRows(walletColumns()).
			AddRow(walletID, now, now, 1, userID, "Old Account", "BANK", "USD", decimal.NewFromInt(500), false)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "wallet_applied_events"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE id = \$1.*FOR UPDATE`).
			WillReturnRows(inactive)
		mock.ExpectRollback()

		err := repo.ApplyBalanceDelta(context.Background(), walletID, uuid.New(), decimal.NewFromInt(100))

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormWalletRepository_OverwriteBalance(t *testing.T) {
	t.Run("overwrites the balance", func(t *testing.T) {
		repo, mock, mockDB := newMockWalletRepository(t)
		defer mockDB.Close()

		walletID := uuid.New()

		mock.ExpectExec(`UPDATE "wallets" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.OverwriteBalance(context.Background(), walletID, decimal.NewFromInt(1200))

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when no row matches", func(t *testing.T) {
		repo, mock, mockDB := newMockWalletRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "wallets" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.OverwriteBalance(context.Background(), uuid.New(), decimal.Zero)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormWalletRepository_TotalBalanceForUser(t *testing.T) {
	repo, mock, mockDB := newMockWalletRepository(t)
	defer mockDB.Close()

	userID := uuid.New()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(balance\), 0\) as total FROM "wallets" WHERE user_id = \$1 AND is_active = \$2`).
		WithArgs(userID, true).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("1250.50"))

	total, err := repo.TotalBalanceForUser(context.Background(), userID)

	assert.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("1250.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
