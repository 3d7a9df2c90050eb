package wallet

import (
	"context"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/ledger"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/domain/shared/valueobject"
	"github.com/fpm2025/finance-tracker/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletService provides application-level wallet operations
type WalletService struct {
	wallets      wallet.WalletRepository
	transactions ledger.TransactionRepository
}

// NewWalletService creates a new WalletService
func NewWalletService(wallets wallet.WalletRepository, transactions ledger.TransactionRepository) *WalletService {
	return &WalletService{
		wallets:      wallets,
		transactions: transactions,
	}
}

// WalletResponse represents a wallet in API responses
type WalletResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CreateWalletRequest represents a request to create a wallet
type CreateWalletRequest struct {
	Name           string          `json:"name" binding:"required"`
	Type           string          `json:"type" binding:"required,oneof=CASH BANK CREDIT_CARD SAVINGS"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// UpdateWalletRequest represents a request to rename a wallet
type UpdateWalletRequest struct {
	Name string `json:"name" binding:"required"`
}

// WalletListFilter defines filtering options for wallet list queries
type WalletListFilter struct {
	Search     string `form:"search"`
	Type       string `form:"type"`
	ActiveOnly bool   `form:"active_only"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir"`
}

// TotalBalanceResponse carries the sum over all active wallets
type TotalBalanceResponse struct {
	TotalBalance decimal.Decimal `json:"total_balance"`
}

// RecomputeResponse reports the outcome of a balance recomputation
type RecomputeResponse struct {
	WalletID        uuid.UUID       `json:"wallet_id"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	Balance         decimal.Decimal `json:"balance"`
	Drift           decimal.Decimal `json:"drift"`
}

// CreateWallet creates a new wallet
func (s *WalletService) CreateWallet(ctx context.Context, userID uuid.UUID, req CreateWalletRequest) (*WalletResponse, error) {
	w, err := wallet.NewWallet(userID, req.Name, wallet.WalletType(req.Type), valueobject.Currency(req.Currency), req.OpeningBalance)
	if err != nil {
		return nil, err
	}

	if err := s.wallets.Save(ctx, w); err != nil {
		return nil, err
	}
	return toWalletResponse(w), nil
}

// UpdateWallet renames a wallet
func (s *WalletService) UpdateWallet(ctx context.Context, userID, id uuid.UUID, req UpdateWalletRequest) (*WalletResponse, error) {
	w, err := s.wallets.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := w.Rename(req.Name); err != nil {
		return nil, err
	}
	if err := s.wallets.Save(ctx, w); err != nil {
		return nil, err
	}
	return toWalletResponse(w), nil
}

// DeactivateWallet disables a wallet. Deactivated wallets keep their history
// but reject new balance deltas.
func (s *WalletService) DeactivateWallet(ctx context.Context, userID, id uuid.UUID) error {
	w, err := s.wallets.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := w.Deactivate(); err != nil {
		return err
	}
	return s.wallets.Save(ctx, w)
}

// GetWallet returns a single wallet
func (s *WalletService) GetWallet(ctx context.Context, userID, id uuid.UUID) (*WalletResponse, error) {
	w, err := s.wallets.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return toWalletResponse(w), nil
}

// ListWallets returns the user's wallets with filtering
func (s *WalletService) ListWallets(ctx context.Context, userID uuid.UUID, filter WalletListFilter) ([]WalletResponse, error) {
	repoFilter := wallet.WalletFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		ActiveOnly: filter.ActiveOnly,
	}
	if filter.Type != "" {
		walletType := wallet.WalletType(filter.Type)
		repoFilter.Type = &walletType
	}
	if repoFilter.Page < 1 {
		repoFilter.Page = 1
	}

	wallets, err := s.wallets.FindAllForUser(ctx, userID, repoFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]WalletResponse, len(wallets))
	for i := range wallets {
		responses[i] = *toWalletResponse(&wallets[i])
	}
	return responses, nil
}

// GetTotalBalance sums the balances of the user's active wallets
func (s *WalletService) GetTotalBalance(ctx context.Context, userID uuid.UUID) (*TotalBalanceResponse, error) {
	total, err := s.wallets.TotalBalanceForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &TotalBalanceResponse{TotalBalance: total}, nil
}

// RecomputeBalance rebuilds a wallet balance from the full transaction
// history and overwrites the incremental projection. The reported drift is
// how far the projection had wandered from the ledger.
func (s *WalletService) RecomputeBalance(ctx context.Context, userID, id uuid.UUID) (*RecomputeResponse, error) {
	w, err := s.wallets.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	recomputed, err := s.transactions.SumByWallet(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.wallets.OverwriteBalance(ctx, id, recomputed); err != nil {
		return nil, err
	}

	return &RecomputeResponse{
		WalletID:        id,
		PreviousBalance: w.Balance,
		Balance:         recomputed,
		Drift:           recomputed.Sub(w.Balance),
	}, nil
}

func toWalletResponse(w *wallet.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:        w.ID,
		Name:      w.Name,
		Type:      w.Type.String(),
		Currency:  string(w.Currency),
		Balance:   w.Balance,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
