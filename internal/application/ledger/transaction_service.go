package ledger

import (
	"context"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/category"
	"github.com/fpm2025/finance-tracker/internal/domain/ledger"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/domain/shared/valueobject"
	"github.com/fpm2025/finance-tracker/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionService provides application-level transaction operations.
// Every write goes through the transactional outbox: the repository commits
// the row and the resulting events in one database transaction, and the
// outbox processor publishes them afterwards.
type TransactionService struct {
	transactions ledger.TransactionRepository
	categories   category.CategoryRepository
	wallets      wallet.WalletRepository
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	transactions ledger.TransactionRepository,
	categories category.CategoryRepository,
	wallets wallet.WalletRepository,
) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		categories:   categories,
		wallets:      wallets,
	}
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	WalletID        uuid.UUID       `json:"wallet_id"`
	CategoryID      uuid.UUID       `json:"category_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Description     string          `json:"description"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateTransactionRequest represents a request to record a transaction
type CreateTransactionRequest struct {
	WalletID        uuid.UUID       `json:"wallet_id" binding:"required"`
	CategoryID      uuid.UUID       `json:"category_id" binding:"required"`
	Type            string          `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Currency        string          `json:"currency"`
	Description     string          `json:"description"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// UpdateTransactionRequest represents a request to modify a transaction.
// The wallet cannot change; move money by deleting and re-recording.
type UpdateTransactionRequest struct {
	CategoryID      uuid.UUID       `json:"category_id" binding:"required"`
	Type            string          `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Currency        string          `json:"currency"`
	Description     string          `json:"description"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// TransactionListFilter defines filtering options for transaction list queries
type TransactionListFilter struct {
	Search     string           `form:"search"`
	WalletID   *uuid.UUID       `form:"wallet_id"`
	CategoryID *uuid.UUID       `form:"category_id"`
	Type       string           `form:"type"`
	FromDate   *time.Time       `form:"from_date" time_format:"2006-01-02"`
	ToDate     *time.Time       `form:"to_date" time_format:"2006-01-02"`
	MinAmount  *decimal.Decimal `form:"min_amount"`
	MaxAmount  *decimal.Decimal `form:"max_amount"`
	Page       int              `form:"page"`
	PageSize   int              `form:"page_size"`
	OrderBy    string           `form:"order_by"`
	OrderDir   string           `form:"order_dir"`
}

// CreateTransaction records a new transaction and queues its creation event
func (s *TransactionService) CreateTransaction(ctx context.Context, userID uuid.UUID, req CreateTransactionRequest) (*TransactionResponse, error) {
	w, err := s.checkWallet(ctx, userID, req.WalletID)
	if err != nil {
		return nil, err
	}
	txType := ledger.TransactionType(req.Type)
	if err := s.checkCategory(ctx, userID, req.CategoryID, txType); err != nil {
		return nil, err
	}

	currency := valueobject.Currency(req.Currency)
	if currency == "" {
		currency = w.Currency
	}
	amount, err := valueobject.NewMoney(req.Amount, currency)
	if err != nil {
		return nil, err
	}

	tx, err := ledger.NewTransaction(userID, req.WalletID, req.CategoryID, txType, amount, req.Description, req.TransactionDate)
	if err != nil {
		return nil, err
	}

	if err := s.transactions.Save(ctx, tx); err != nil {
		return nil, err
	}

	return toTransactionResponse(tx), nil
}

// UpdateTransaction modifies a transaction and queues the update event that
// carries both the previous and the new state
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, id uuid.UUID, req UpdateTransactionRequest) (*TransactionResponse, error) {
	tx, err := s.transactions.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	txType := ledger.TransactionType(req.Type)
	if err := s.checkCategory(ctx, userID, req.CategoryID, txType); err != nil {
		return nil, err
	}

	currency := valueobject.Currency(req.Currency)
	if currency == "" {
		currency = tx.Currency
	}
	amount, err := valueobject.NewMoney(req.Amount, currency)
	if err != nil {
		return nil, err
	}

	if err := tx.Update(req.CategoryID, txType, amount, req.Description, req.TransactionDate); err != nil {
		return nil, err
	}

	if err := s.transactions.Save(ctx, tx); err != nil {
		return nil, err
	}

	return toTransactionResponse(tx), nil
}

// DeleteTransaction removes a transaction and queues the deletion event
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := s.transactions.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return err
	}

	tx.MarkDeleted()
	return s.transactions.Delete(ctx, tx)
}

// GetTransaction returns a single transaction
func (s *TransactionService) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*TransactionResponse, error) {
	tx, err := s.transactions.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return toTransactionResponse(tx), nil
}

// ListTransactions returns a filtered page of transactions and the total count
func (s *TransactionService) ListTransactions(ctx context.Context, userID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	repoFilter := toRepositoryFilter(filter)

	transactions, err := s.transactions.FindAllForUser(ctx, userID, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactions.CountForUser(ctx, userID, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		responses[i] = *toTransactionResponse(&transactions[i])
	}
	return responses, total, nil
}

// checkWallet ensures the wallet exists, belongs to the user and is active
func (s *TransactionService) checkWallet(ctx context.Context, userID, walletID uuid.UUID) (*wallet.Wallet, error) {
	w, err := s.wallets.FindByIDForUser(ctx, userID, walletID)
	if err != nil {
		return nil, err
	}
	if !w.IsActive {
		return nil, shared.ErrInvalidState
	}
	return w, nil
}

// checkCategory ensures the category is visible to the user and its kind
// matches the transaction direction
func (s *TransactionService) checkCategory(ctx context.Context, userID, categoryID uuid.UUID, txType ledger.TransactionType) error {
	cat, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if !cat.VisibleTo(userID) {
		return shared.ErrNotFound
	}
	if string(cat.Type) != string(txType) {
		return shared.ErrCategoryMismatch
	}
	return nil
}

func toRepositoryFilter(filter TransactionListFilter) ledger.TransactionFilter {
	repoFilter := ledger.TransactionFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		WalletID:   filter.WalletID,
		CategoryID: filter.CategoryID,
		FromDate:   filter.FromDate,
		ToDate:     filter.ToDate,
		MinAmount:  filter.MinAmount,
		MaxAmount:  filter.MaxAmount,
	}
	if filter.Type != "" {
		txType := ledger.TransactionType(filter.Type)
		repoFilter.Type = &txType
	}
	if repoFilter.Page < 1 {
		repoFilter.Page = 1
	}
	if repoFilter.PageSize < 1 {
		repoFilter.PageSize = 20
	}
	return repoFilter
}

func toTransactionResponse(tx *ledger.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:              tx.ID,
		WalletID:        tx.WalletID,
		CategoryID:      tx.CategoryID,
		Type:            tx.Type.String(),
		Amount:          tx.Amount,
		Currency:        string(tx.Currency),
		Description:     tx.Description,
		TransactionDate: tx.TransactionDate,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}
