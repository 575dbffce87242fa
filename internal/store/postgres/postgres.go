// Package postgres implements store.Store with gorm on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn and migrates the three tables.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", model.ErrStore, err)
	}
	s := New(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&model.Identity{}, &model.WalletRecord{}, &model.TransferReceipt{}); err != nil {
		return fmt.Errorf("%w: migrate: %w", model.ErrStore, err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func wrap(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", model.ErrNotFound, op)
	}
	return fmt.Errorf("%w: %s: %w", model.ErrStore, op, err)
}

// insert writes row unless its primary key is taken.
func (s *Store) insert(ctx context.Context, op string, row any) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s: row exists", model.ErrConflict, op)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, email string) (*model.Identity, error) {
	var u model.Identity
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, wrap("user "+email, err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.Identity) error {
	return s.insert(ctx, "create user "+user.Email, user)
}

func (s *Store) updateUser(ctx context.Context, email string, values map[string]any) error {
	res := s.db.WithContext(ctx).Model(&model.Identity{}).Where("email = ?", email).Updates(values)
	if res.Error != nil {
		return wrap("update user "+email, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", model.ErrNotFound, email)
	}
	return nil
}

func (s *Store) UpdateUserStatus(ctx context.Context, email string, status model.IdentityStatus) error {
	return s.updateUser(ctx, email, map[string]any{"status": status})
}

func (s *Store) UpdateRewardPoints(ctx context.Context, email string, points uint64) error {
	return s.updateUser(ctx, email, map[string]any{"reward_points": points})
}

func (s *Store) GetWallet(ctx context.Context, email string) (*model.WalletRecord, error) {
	var w model.WalletRecord
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&w).Error; err != nil {
		return nil, wrap("wallet for "+email, err)
	}
	return &w, nil
}

func (s *Store) CreateWallet(ctx context.Context, wallet *model.WalletRecord) error {
	return s.insert(ctx, "create wallet "+wallet.Email, wallet)
}

func (s *Store) AdvanceWalletState(ctx context.Context, email string, from, to model.ProvisionState) error {
	res := s.db.WithContext(ctx).Model(&model.WalletRecord{}).
		Where("email = ? AND state = ?", email, from).
		Updates(map[string]any{"state": to, "pending_tx": "", "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return wrap("advance wallet "+email, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := s.GetWallet(ctx, email); err != nil {
		return err
	}
	return fmt.Errorf("%w: wallet for %s is not in state %s", model.ErrConflict, email, from)
}

func (s *Store) SetPendingTx(ctx context.Context, email string, state model.ProvisionState, sig string) error {
	res := s.db.WithContext(ctx).Model(&model.WalletRecord{}).
		Where("email = ? AND state = ?", email, state).
		Updates(map[string]any{"pending_tx": sig, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return wrap("set pending transaction "+email, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := s.GetWallet(ctx, email); err != nil {
		return err
	}
	return fmt.Errorf("%w: wallet for %s is not in state %s", model.ErrConflict, email, state)
}

func (s *Store) UpdateWalletKey(ctx context.Context, email, sealed string) error {
	res := s.db.WithContext(ctx).Model(&model.WalletRecord{}).
		Where("email = ?", email).
		Updates(map[string]any{"sealed_private_key": sealed, "private_key": "", "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return wrap("update wallet key "+email, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: wallet for %s", model.ErrNotFound, email)
	}
	return nil
}

func (s *Store) ListWallets(ctx context.Context, filter model.WalletFilter) ([]model.WalletRecord, error) {
	q := s.db.WithContext(ctx).Model(&model.WalletRecord{})
	if filter.ExcludeState != "" {
		q = q.Where("state <> ?", filter.ExcludeState)
	}
	if !filter.UpdatedBefore.IsZero() {
		q = q.Where("updated_at < ?", filter.UpdatedBefore)
	}
	if filter.LegacyKeyOnly {
		q = q.Where("private_key IS NOT NULL AND private_key <> ''")
	}
	var out []model.WalletRecord
	if err := q.Order("email").Find(&out).Error; err != nil {
		return nil, wrap("list wallets", err)
	}
	return out, nil
}

func (s *Store) PutReceipt(ctx context.Context, receipt *model.TransferReceipt) error {
	return s.insert(ctx, "put receipt "+receipt.TransactionID, receipt)
}

func (s *Store) GetReceipt(ctx context.Context, txID string) (*model.TransferReceipt, error) {
	var r model.TransferReceipt
	if err := s.db.WithContext(ctx).Where("transaction_id = ?", txID).Take(&r).Error; err != nil {
		return nil, wrap("receipt "+txID, err)
	}
	return &r, nil
}

func (s *Store) ListReceipts(ctx context.Context, email string) ([]model.TransferReceipt, error) {
	var out []model.TransferReceipt
	err := s.db.WithContext(ctx).
		Where("from_email = ? OR to_email = ?", email, email).
		Order("transaction_date").
		Find(&out).Error
	if err != nil {
		return nil, wrap("list receipts "+email, err)
	}
	return out, nil
}
