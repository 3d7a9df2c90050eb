package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/ledger"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter wallet.WalletFilter) ([]wallet.Wallet, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockWalletRepository) ApplyBalanceDelta(ctx context.Context, walletID, eventID uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, walletID, eventID, delta)
	return args.Error(0)
}

func (m *MockWalletRepository) OverwriteBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) error {
	args := m.Called(ctx, walletID, balance)
	return args.Error(0)
}

func (m *MockWalletRepository) TotalBalanceForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func newCreatedEvent(walletID uuid.UUID, txType ledger.TransactionType, amount int64) *ledger.TransactionCreatedEvent {
	txID := uuid.New()
	return &ledger.TransactionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(ledger.EventTypeTransactionCreated, ledger.AggregateTypeTransaction, txID, uuid.New()),
		TransactionID:   txID,
		WalletID:        walletID,
		CategoryID:      uuid.New(),
		Type:            txType,
		Amount:          decimal.NewFromInt(amount),
		TransactionDate: time.Now(),
	}
}

func TestBalanceReconcilerHandler_EventTypes(t *testing.T) {
	handler := NewBalanceReconcilerHandler(new(MockWalletRepository), zap.NewNop())

	assert.ElementsMatch(t, []string{
		ledger.EventTypeTransactionCreated,
		ledger.EventTypeTransactionUpdated,
		ledger.EventTypeTransactionDeleted,
	}, handler.EventTypes())
}

func TestBalanceReconcilerHandler_Handle(t *testing.T) {
	t.Run("applies income delta", func(t *testing.T) {
		repo := new(MockWalletRepository)
		handler := NewBalanceReconcilerHandler(repo, zap.NewNop())

		walletID := uuid.New()
		event := newCreatedEvent(walletID, ledger.TransactionTypeIncome, 100)

		repo.On("ApplyBalanceDelta", mock.Anything, walletID, event.EventID(), decimal.NewFromInt(100)).Return(nil)

		err := handler.Handle(context.Background(), event)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("applies expense delta as a negative adjustment", func(t *testing.T) {
		repo := new(MockWalletRepository)
		handler := NewBalanceReconcilerHandler(repo, zap.NewNop())

		walletID := uuid.New()
		event := newCreatedEvent(walletID, ledger.TransactionTypeExpense, 40)

		repo.On("ApplyBalanceDelta", mock.Anything, walletID, event.EventID(), decimal.NewFromInt(-40)).Return(nil)

		err := handler.Handle(context.Background(), event)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("update applies the net of old and new effects", func(t *testing.T) {
		repo := new(MockWalletRepository)
		handler := NewBalanceReconcilerHandler(repo, zap.NewNop())

		walletID := uuid.New()
		txID := uuid.New()
		// 100 income turned into a 60 expense: net -160 on top of the
		// +100 already applied, leaving the wallet at -60 overall
		event := &ledger.TransactionUpdatedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(ledger.EventTypeTransactionUpdated, ledger.AggregateTypeTransaction, txID, uuid.New()),
			TransactionID:   txID,
			WalletID:        walletID,
			OldCategoryID:   uuid.New(),
			NewCategoryID:   uuid.New(),
			OldType:         ledger.TransactionTypeIncome,
			NewType:         ledger.TransactionTypeExpense,
			OldAmount:       decimal.NewFromInt(100),
			NewAmount:       decimal.NewFromInt(60),
			TransactionDate: time.Now(),
		}

		repo.On("ApplyBalanceDelta", mock.Anything, walletID, event.EventID(), decimal.NewFromInt(-160)).Return(nil)

		err := handler.Handle(context.Background(), event)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("replayed event is acked without error", func(t *testing.T) {
		repo := new(MockWalletRepository)
		handler := NewBalanceReconcilerHandler(repo, zap.NewNop())

		event := newCreatedEvent(uuid.New(), ledger.TransactionTypeIncome, 100)

		repo.On("ApplyBalanceDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(shared.ErrAlreadyExists)

		err := handler.Handle(context.Background(), event)

		assert.NoError(t, err)
	})

	t.Run("insufficient balance propagates for dead lettering", func(t *testing.T) {
		repo := new(MockWalletRepository)
		handler := NewBalanceReconcilerHandler(repo, zap.NewNop())

		event := newCreatedEvent(uuid.New(), ledger.TransactionTypeExpense, 1000)

		repo.On("ApplyBalanceDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(shared.ErrInsufficientBalance)

		err := handler.Handle(context.Background(), event)

		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
	})

	t.Run("zero net delta touches nothing", func(t *testing.T) {
		repo := new(MockWalletRepository)
		handler := NewBalanceReconcilerHandler(repo, zap.NewNop())

		txID := uuid.New()
		categoryID := uuid.New()
		// Only the description changed; amount and type are untouched
		event := &ledger.TransactionUpdatedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(ledger.EventTypeTransactionUpdated, ledger.AggregateTypeTransaction, txID, uuid.New()),
			TransactionID:   txID,
			WalletID:        uuid.New(),
			OldCategoryID:   categoryID,
			NewCategoryID:   categoryID,
			OldType:         ledger.TransactionTypeExpense,
			NewType:         ledger.TransactionTypeExpense,
			OldAmount:       decimal.NewFromInt(25),
			NewAmount:       decimal.NewFromInt(25),
			TransactionDate: time.Now(),
		}

		err := handler.Handle(context.Background(), event)

		assert.NoError(t, err)
		repo.AssertNotCalled(t, "ApplyBalanceDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects events without a balance delta", func(t *testing.T) {
		repo := new(MockWalletRepository)
		handler := NewBalanceReconcilerHandler(repo, zap.NewNop())

		event := shared.NewBaseDomainEvent("something.else", "Something", uuid.New(), uuid.New())

		err := handler.Handle(context.Background(), &event)

		assert.Error(t, err)
	})
}

// fakeWalletStore applies deltas the way the persistence layer does: one
// durable applied-event marker per event, no balance below zero
type fakeWalletStore struct {
	balance decimal.Decimal
	applied map[uuid.UUID]struct{}
}

func newFakeWalletStore(balance int64) *fakeWalletStore {
	return &fakeWalletStore{
		balance: decimal.NewFromInt(balance),
		applied: make(map[uuid.UUID]struct{}),
	}
}

func (s *fakeWalletStore) ApplyBalanceDelta(ctx context.Context, walletID, eventID uuid.UUID, delta decimal.Decimal) error {
	if _, ok := s.applied[eventID]; ok {
		return shared.ErrAlreadyExists
	}
	next := s.balance.Add(delta)
	if next.IsNegative() {
		return shared.ErrInsufficientBalance
	}
	s.applied[eventID] = struct{}{}
	s.balance = next
	return nil
}

func (s *fakeWalletStore) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	return nil, shared.ErrNotFound
}

func (s *fakeWalletStore) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*wallet.Wallet, error) {
	return nil, shared.ErrNotFound
}

func (s *fakeWalletStore) FindAllForUser(ctx context.Context, userID uuid.UUID, filter wallet.WalletFilter) ([]wallet.Wallet, error) {
	return nil, nil
}

func (s *fakeWalletStore) Save(ctx context.Context, w *wallet.Wallet) error {
	return nil
}

func (s *fakeWalletStore) OverwriteBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) error {
	s.balance = balance
	return nil
}

func (s *fakeWalletStore) TotalBalanceForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s.balance, nil
}

// TestBalanceReconcilerHandler_TransactionLifecycle drives a full
// create/update/delete sequence through one store: a 500 wallet pays a 100
// expense, the expense grows to 150, then the transaction is deleted. The
// deltas must net to zero and a redelivered event must not disturb that.
func TestBalanceReconcilerHandler_TransactionLifecycle(t *testing.T) {
	store := newFakeWalletStore(500)
	handler := NewBalanceReconcilerHandler(store, zap.NewNop())
	ctx := context.Background()

	walletID := uuid.New()
	userID := uuid.New()
	categoryID := uuid.New()
	txID := uuid.New()

	created := &ledger.TransactionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(ledger.EventTypeTransactionCreated, ledger.AggregateTypeTransaction, txID, userID),
		TransactionID:   txID,
		WalletID:        walletID,
		CategoryID:      categoryID,
		Type:            ledger.TransactionTypeExpense,
		Amount:          decimal.NewFromInt(100),
		TransactionDate: time.Now(),
	}
	require.NoError(t, handler.Handle(ctx, created))
	assert.True(t, store.balance.Equal(decimal.NewFromInt(400)))

	// Redelivery of the same event must be acked without a second apply
	require.NoError(t, handler.Handle(ctx, created))
	assert.True(t, store.balance.Equal(decimal.NewFromInt(400)))

	updated := &ledger.TransactionUpdatedEvent{
		BaseDomainEvent: shared.NewVersionedBaseDomainEvent(ledger.EventTypeTransactionUpdated, ledger.AggregateTypeTransaction, txID, userID, ledger.TransactionUpdatedSchemaVersion),
		TransactionID:   txID,
		WalletID:        walletID,
		OldCategoryID:   categoryID,
		NewCategoryID:   categoryID,
		OldType:         ledger.TransactionTypeExpense,
		NewType:         ledger.TransactionTypeExpense,
		OldAmount:       decimal.NewFromInt(100),
		NewAmount:       decimal.NewFromInt(150),
		TransactionDate: time.Now(),
	}
	require.NoError(t, handler.Handle(ctx, updated))
	assert.True(t, store.balance.Equal(decimal.NewFromInt(350)))

	deleted := &ledger.TransactionDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(ledger.EventTypeTransactionDeleted, ledger.AggregateTypeTransaction, txID, userID),
		TransactionID:   txID,
		WalletID:        walletID,
		CategoryID:      categoryID,
		Type:            ledger.TransactionTypeExpense,
		Amount:          decimal.NewFromInt(150),
		TransactionDate: time.Now(),
	}
	require.NoError(t, handler.Handle(ctx, deleted))

	// Deleting the transaction returns the wallet to where it started
	assert.True(t, store.balance.Equal(decimal.NewFromInt(500)))
	assert.Len(t, store.applied, 3)
}
