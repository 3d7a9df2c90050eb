package budget

import (
	"context"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/budget"
	"github.com/fpm2025/finance-tracker/internal/domain/ledger"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetService provides application-level budget operations
type BudgetService struct {
	budgets      budget.BudgetRepository
	alerts       budget.BudgetAlertRepository
	transactions ledger.TransactionRepository
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(
	budgets budget.BudgetRepository,
	alerts budget.BudgetAlertRepository,
	transactions ledger.TransactionRepository,
) *BudgetService {
	return &BudgetService{
		budgets:      budgets,
		alerts:       alerts,
		transactions: transactions,
	}
}

// BudgetResponse represents a budget in API responses
type BudgetResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	CategoryID      *uuid.UUID      `json:"category_id"`
	WalletID        *uuid.UUID      `json:"wallet_id"`
	AmountLimit     decimal.Decimal `json:"amount_limit"`
	Period          string          `json:"period"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         *time.Time      `json:"end_date"`
	AlertThreshold  decimal.Decimal `json:"alert_threshold"`
	CurrentSpent    decimal.Decimal `json:"current_spent"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	UsagePercentage decimal.Decimal `json:"usage_percentage"`
	Status          string          `json:"status"`
	RolloverEnabled bool            `json:"rollover_enabled"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateBudgetRequest represents a request to create a budget
type CreateBudgetRequest struct {
	Name           string           `json:"name" binding:"required"`
	Description    string           `json:"description"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	WalletID       *uuid.UUID       `json:"wallet_id"`
	AmountLimit    decimal.Decimal  `json:"amount_limit" binding:"required"`
	Period         string           `json:"period" binding:"required,oneof=DAILY WEEKLY MONTHLY QUARTERLY YEARLY CUSTOM"`
	StartDate      time.Time        `json:"start_date" binding:"required"`
	EndDate        *time.Time       `json:"end_date"`
	AlertThreshold *decimal.Decimal `json:"alert_threshold"`
}

// UpdateBudgetRequest represents a request to update a budget definition
type UpdateBudgetRequest struct {
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	AmountLimit    decimal.Decimal `json:"amount_limit" binding:"required"`
	AlertThreshold decimal.Decimal `json:"alert_threshold" binding:"required"`
}

// BudgetListFilter defines filtering options for budget list queries
type BudgetListFilter struct {
	Search     string     `form:"search"`
	CategoryID *uuid.UUID `form:"category_id"`
	WalletID   *uuid.UUID `form:"wallet_id"`
	Period     string     `form:"period"`
	ActiveOnly bool       `form:"active_only"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir"`
}

// BudgetStatusResponse is the detail view of how a budget is doing
type BudgetStatusResponse struct {
	Budget         BudgetResponse  `json:"budget"`
	DaysRemaining  int             `json:"days_remaining"`
	DailyAverage   decimal.Decimal `json:"daily_average"`
	ProjectedTotal decimal.Decimal `json:"projected_total"`
	RecentAlerts   []AlertResponse `json:"recent_alerts"`
}

// AlertResponse represents a budget alert in API responses
type AlertResponse struct {
	ID             uuid.UUID        `json:"id"`
	BudgetID       uuid.UUID        `json:"budget_id"`
	AlertType      string           `json:"alert_type"`
	Message        string           `json:"message"`
	PercentageUsed decimal.Decimal  `json:"percentage_used"`
	AmountOver     *decimal.Decimal `json:"amount_over,omitempty"`
	IsRead         bool             `json:"is_read"`
	SentAt         time.Time        `json:"sent_at"`
}

// RecalculateResponse reports the outcome of a spend recalculation
type RecalculateResponse struct {
	BudgetID      uuid.UUID       `json:"budget_id"`
	PreviousSpent decimal.Decimal `json:"previous_spent"`
	CurrentSpent  decimal.Decimal `json:"current_spent"`
	Drift         decimal.Decimal `json:"drift"`
}

// CreateBudget creates a budget and seeds its spent counter from the
// expenses already recorded inside the budget window
func (s *BudgetService) CreateBudget(ctx context.Context, userID uuid.UUID, req CreateBudgetRequest) (*BudgetResponse, error) {
	b, err := budget.NewBudget(userID, req.Name, req.Description, req.CategoryID, req.WalletID,
		req.AmountLimit, budget.BudgetPeriod(req.Period), req.StartDate, req.EndDate, req.AlertThreshold)
	if err != nil {
		return nil, err
	}

	spent, err := s.sumExpensesInWindow(ctx, b)
	if err != nil {
		return nil, err
	}
	b.OverwriteSpent(spent)

	if err := s.budgets.Save(ctx, b); err != nil {
		return nil, err
	}
	return toBudgetResponse(b), nil
}

// UpdateBudget changes a budget's definition. The spent counter is kept;
// use recalculation after scope-affecting edits.
func (s *BudgetService) UpdateBudget(ctx context.Context, userID, id uuid.UUID, req UpdateBudgetRequest) (*BudgetResponse, error) {
	b, err := s.budgets.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := b.Update(req.Name, req.Description, req.AmountLimit, req.AlertThreshold); err != nil {
		return nil, err
	}
	if err := s.budgets.Save(ctx, b); err != nil {
		return nil, err
	}
	return toBudgetResponse(b), nil
}

// DeactivateBudget disables a budget. INACTIVE is terminal.
func (s *BudgetService) DeactivateBudget(ctx context.Context, userID, id uuid.UUID) error {
	b, err := s.budgets.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := b.Deactivate(); err != nil {
		return err
	}
	return s.budgets.Save(ctx, b)
}

// GetBudget returns a single budget
func (s *BudgetService) GetBudget(ctx context.Context, userID, id uuid.UUID) (*BudgetResponse, error) {
	b, err := s.budgets.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return toBudgetResponse(b), nil
}

// ListBudgets returns the user's budgets with filtering
func (s *BudgetService) ListBudgets(ctx context.Context, userID uuid.UUID, filter BudgetListFilter) ([]BudgetResponse, error) {
	repoFilter := budget.BudgetFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		CategoryID: filter.CategoryID,
		WalletID:   filter.WalletID,
		ActiveOnly: filter.ActiveOnly,
	}
	if filter.Period != "" {
		period := budget.BudgetPeriod(filter.Period)
		repoFilter.Period = &period
	}
	if repoFilter.Page < 1 {
		repoFilter.Page = 1
	}

	budgets, err := s.budgets.FindAllForUser(ctx, userID, repoFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]BudgetResponse, len(budgets))
	for i := range budgets {
		responses[i] = *toBudgetResponse(&budgets[i])
	}
	return responses, nil
}

// GetBudgetStatus returns the budget with pacing figures and recent alerts
func (s *BudgetService) GetBudgetStatus(ctx context.Context, userID, id uuid.UUID) (*BudgetStatusResponse, error) {
	b, err := s.budgets.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	alerts, err := s.alerts.FindByBudget(ctx, id)
	if err != nil {
		return nil, err
	}
	alertResponses := make([]AlertResponse, len(alerts))
	for i := range alerts {
		alertResponses[i] = *toAlertResponse(&alerts[i])
	}

	daysRemaining, dailyAverage, projected := pacing(b, time.Now())

	return &BudgetStatusResponse{
		Budget:         *toBudgetResponse(b),
		DaysRemaining:  daysRemaining,
		DailyAverage:   dailyAverage,
		ProjectedTotal: projected,
		RecentAlerts:   alertResponses,
	}, nil
}

// RecalculateSpending rebuilds the spent counter from the transaction table
// and re-runs the alert check. The operator path for drift correction.
func (s *BudgetService) RecalculateSpending(ctx context.Context, userID, id uuid.UUID) (*RecalculateResponse, error) {
	b, err := s.budgets.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	total, err := s.sumExpensesInWindow(ctx, b)
	if err != nil {
		return nil, err
	}

	if err := s.budgets.OverwriteSpent(ctx, id, total); err != nil {
		return nil, err
	}

	return &RecalculateResponse{
		BudgetID:      id,
		PreviousSpent: b.CurrentSpent,
		CurrentSpent:  total,
		Drift:         total.Sub(b.CurrentSpent),
	}, nil
}

// UnreadAlerts returns the user's unread alerts, newest first
func (s *BudgetService) UnreadAlerts(ctx context.Context, userID uuid.UUID) ([]AlertResponse, error) {
	alerts, err := s.alerts.FindUnreadForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	responses := make([]AlertResponse, len(alerts))
	for i := range alerts {
		responses[i] = *toAlertResponse(&alerts[i])
	}
	return responses, nil
}

// MarkAlertRead marks an alert as read
func (s *BudgetService) MarkAlertRead(ctx context.Context, userID, alertID uuid.UUID) error {
	return s.alerts.MarkRead(ctx, userID, alertID)
}

// sumExpensesInWindow totals the expenses the budget's scope and window cover
func (s *BudgetService) sumExpensesInWindow(ctx context.Context, b *budget.Budget) (decimal.Decimal, error) {
	end := time.Now()
	if b.EndDate != nil {
		end = endOfDay(*b.EndDate)
	}
	return s.transactions.SumExpensesForPeriod(ctx, b.UserID, b.CategoryID, b.WalletID, b.StartDate, end)
}

// pacing derives days remaining, the daily spend average and the projected
// period total from the budget window and the spent counter
func pacing(b *budget.Budget, now time.Time) (int, decimal.Decimal, decimal.Decimal) {
	daysRemaining := 0
	totalDays := 0
	if b.EndDate != nil {
		if remaining := endOfDay(*b.EndDate).Sub(now); remaining > 0 {
			daysRemaining = int(remaining.Hours()/24) + 1
		}
		totalDays = int(endOfDay(*b.EndDate).Sub(b.StartDate).Hours()/24) + 1
	}

	daysElapsed := int(now.Sub(b.StartDate).Hours()/24) + 1
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	dailyAverage := b.CurrentSpent.DivRound(decimal.NewFromInt(int64(daysElapsed)), 2)

	projected := b.CurrentSpent
	if totalDays > daysElapsed {
		projected = dailyAverage.Mul(decimal.NewFromInt(int64(totalDays)))
	}
	return daysRemaining, dailyAverage, projected
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), d.Location())
}

func toBudgetResponse(b *budget.Budget) *BudgetResponse {
	return &BudgetResponse{
		ID:              b.ID,
		Name:            b.Name,
		Description:     b.Description,
		CategoryID:      b.CategoryID,
		WalletID:        b.WalletID,
		AmountLimit:     b.AmountLimit,
		Period:          b.Period.String(),
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		AlertThreshold:  b.AlertThreshold,
		CurrentSpent:    b.CurrentSpent,
		RemainingAmount: b.RemainingAmount(),
		UsagePercentage: b.UsagePercentage(),
		Status:          string(b.Status()),
		RolloverEnabled: b.RolloverEnabled,
		IsActive:        b.IsActive,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toAlertResponse(a *budget.BudgetAlert) *AlertResponse {
	return &AlertResponse{
		ID:             a.ID,
		BudgetID:       a.BudgetID,
		AlertType:      string(a.AlertType),
		Message:        a.Message,
		PercentageUsed: a.PercentageUsed,
		AmountOver:     a.AmountOver,
		IsRead:         a.IsRead,
		SentAt:         a.SentAt,
	}
}
