package postgres

import (
	"context"
	"testing"

	"github.com/AlexZinkM/chewy-custody/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return New(db), mock
}

func TestPutReceipt_InsertIfAbsent(t *testing.T) {
	s, mock := newMockStore(t)
	r := &model.TransferReceipt{TransactionID: "sig", FromEmail: "a@x.com", ToEmail: "b@y.com", Amount: 5, CoinType: model.AssetToken, Status: true}

	mock.ExpectExec(`INSERT INTO "wallet_transactions" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "wallet_transactions" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.PutReceipt(context.Background(), r))
	assert.ErrorIs(t, s.PutReceipt(context.Background(), r), model.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceWalletState(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE "wallet_details" SET .* WHERE email = \$4 AND state = \$5`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.AdvanceWalletState(ctx, "a@x.com", model.StateCreated, model.StateGasFunded))

	// stale state: row exists but did not match
	mock.ExpectExec(`UPDATE "wallet_details"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "wallet_details" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "state"}).AddRow("a@x.com", "gas_funded"))
	err := s.AdvanceWalletState(ctx, "a@x.com", model.StateCreated, model.StateGasFunded)
	assert.ErrorIs(t, err, model.ErrConflict)

	// missing row
	mock.ExpectExec(`UPDATE "wallet_details"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "wallet_details"`).WillReturnRows(sqlmock.NewRows([]string{"email"}))
	err = s.AdvanceWalletState(ctx, "nobody@x.com", model.StateCreated, model.StateGasFunded)
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPendingTx(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE "wallet_details" SET .* WHERE email = \$3 AND state = \$4`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.SetPendingTx(ctx, "a@x.com", model.StateCreated, "sig"))

	mock.ExpectExec(`UPDATE "wallet_details"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "wallet_details" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "state"}).AddRow("a@x.com", "gas_funded"))
	err := s.SetPendingTx(ctx, "a@x.com", model.StateCreated, "sig")
	assert.ErrorIs(t, err, model.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWallet(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "wallet_details" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "wallet_address", "balance", "state"}).
			AddRow("a@x.com", "Addr", 1000, "token_funded"))

	w, err := s.GetWallet(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Addr", w.WalletAddress)
	assert.Equal(t, uint64(1000), w.Balance)
	assert.Equal(t, model.StateTokenFunded, w.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRewardPoints_Missing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "users" SET "reward_points"=\$1 WHERE email = \$2`).
		WithArgs(uint64(7), "a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateRewardPoints(context.Background(), "a@x.com", 7)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
