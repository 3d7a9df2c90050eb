package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ledgerapp "github.com/fpm2025/finance-tracker/internal/application/ledger"
	"github.com/fpm2025/finance-tracker/internal/domain/category"
	"github.com/fpm2025/finance-tracker/internal/domain/ledger"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/domain/shared/valueobject"
	"github.com/fpm2025/finance-tracker/internal/domain/wallet"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockTransactionRepository implements ledger.TransactionRepository for testing
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter ledger.TransactionFilter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) Save(ctx context.Context, tx *ledger.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, tx *ledger.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) SumByWallet(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) SumExpensesForPeriod(ctx context.Context, userID uuid.UUID, categoryID, walletID *uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, categoryID, walletID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

var _ ledger.TransactionRepository = (*MockTransactionRepository)(nil)

// MockWalletRepository implements wallet.WalletRepository for testing
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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

var _ wallet.WalletRepository = (*MockWalletRepository)(nil)

// MockCategoryRepository implements category.CategoryRepository for testing
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*category.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAllForUser(ctx context.Context, userID uuid.UUID) ([]category.Category, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]category.Category), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, c *category.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

var _ category.CategoryRepository = (*MockCategoryRepository)(nil)

// Test helpers

var testUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func setupTransactionTestRouter() (*gin.Engine, *MockTransactionRepository, *MockCategoryRepository, *MockWalletRepository, *TransactionHandler) {
	gin.SetMode(gin.TestMode)

	mockTxRepo := new(MockTransactionRepository)
	mockCatRepo := new(MockCategoryRepository)
	mockWalletRepo := new(MockWalletRepository)
	service := ledgerapp.NewTransactionService(mockTxRepo, mockCatRepo, mockWalletRepo)
	handler := NewTransactionHandler(service)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		setJWTContext(c, testUserID)
		c.Next()
	})

	return router, mockTxRepo, mockCatRepo, mockWalletRepo, handler
}

func newTestWallet(userID uuid.UUID) *wallet.Wallet {
	w, _ := wallet.NewWallet(userID, "Checking", wallet.WalletTypeBank, valueobject.USD, decimal.NewFromInt(100))
	return w
}

func newTestExpenseCategory(userID uuid.UUID) *category.Category {
	cat, _ := category.NewCategory(userID, "Groceries", category.CategoryTypeExpense, "cart", "#4caf50")
	return cat
}

func newTestTransaction(userID uuid.UUID) *ledger.Transaction {
	amount := valueobject.NewMoneyUSDFromFloat(42.50)
	tx, _ := ledger.NewTransaction(userID, uuid.New(), uuid.New(), ledger.TransactionTypeExpense, amount, "Weekly shop", time.Now())
	return tx
}

// Tests

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("should record expense transaction", func(t *testing.T) {
		router, mockTxRepo, mockCatRepo, mockWalletRepo, handler := setupTransactionTestRouter()

		router.POST("/ledger/transactions", handler.CreateTransaction)

		testWallet := newTestWallet(testUserID)
		testCategory := newTestExpenseCategory(testUserID)

		mockWalletRepo.On("FindByIDForUser", mock.Anything, testUserID, testWallet.ID).
			Return(testWallet, nil)
		mockCatRepo.On("FindByID", mock.Anything, testCategory.ID).
			Return(testCategory, nil)
		mockTxRepo.On("Save", mock.Anything, mock.AnythingOfType("*ledger.Transaction")).
			Return(nil)

		reqBody := map[string]interface{}{
			"wallet_id":   testWallet.ID.String(),
			"category_id": testCategory.ID.String(),
			"type":        "EXPENSE",
			"amount":      "42.50",
			"description": "Weekly shop",
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/ledger/transactions", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		mockTxRepo.AssertExpectations(t)
		mockWalletRepo.AssertExpectations(t)
		mockCatRepo.AssertExpectations(t)
	})

	t.Run("should reject income category on expense transaction", func(t *testing.T) {
		router, mockTxRepo, mockCatRepo, mockWalletRepo, handler := setupTransactionTestRouter()

		router.POST("/ledger/transactions", handler.CreateTransaction)

		testWallet := newTestWallet(testUserID)
		incomeCategory, _ := category.NewCategory(testUserID, "Salary", category.CategoryTypeIncome, "bank", "#2196f3")

		mockWalletRepo.On("FindByIDForUser", mock.Anything, testUserID, testWallet.ID).
			Return(testWallet, nil)
		mockCatRepo.On("FindByID", mock.Anything, incomeCategory.ID).
			Return(incomeCategory, nil)

		reqBody := map[string]interface{}{
			"wallet_id":   testWallet.ID.String(),
			"category_id": incomeCategory.ID.String(),
			"type":        "EXPENSE",
			"amount":      "42.50",
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/ledger/transactions", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockTxRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("should reject transaction on deactivated wallet", func(t *testing.T) {
		router, mockTxRepo, _, mockWalletRepo, handler := setupTransactionTestRouter()

		router.POST("/ledger/transactions", handler.CreateTransaction)

		testWallet := newTestWallet(testUserID)
		testWallet.IsActive = false

		mockWalletRepo.On("FindByIDForUser", mock.Anything, testUserID, testWallet.ID).
			Return(testWallet, nil)

		reqBody := map[string]interface{}{
			"wallet_id":   testWallet.ID.String(),
			"category_id": uuid.New().String(),
			"type":        "EXPENSE",
			"amount":      "10",
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/ledger/transactions", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockTxRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("should return error for invalid type", func(t *testing.T) {
		router, _, _, _, handler := setupTransactionTestRouter()

		router.POST("/ledger/transactions", handler.CreateTransaction)

		reqBody := map[string]interface{}{
			"wallet_id":   uuid.New().String(),
			"category_id": uuid.New().String(),
			"type":        "TRANSFER",
			"amount":      "10",
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/ledger/transactions", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should require authentication", func(t *testing.T) {
		gin.SetMode(gin.TestMode)

		mockTxRepo := new(MockTransactionRepository)
		mockCatRepo := new(MockCategoryRepository)
		mockWalletRepo := new(MockWalletRepository)
		service := ledgerapp.NewTransactionService(mockTxRepo, mockCatRepo, mockWalletRepo)
		handler := NewTransactionHandler(service)

		router := gin.New()
		router.POST("/ledger/transactions", handler.CreateTransaction)

		req, _ := http.NewRequest(http.MethodPost, "/ledger/transactions", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestTransactionHandler_GetTransaction(t *testing.T) {
	t.Run("should get transaction by ID", func(t *testing.T) {
		router, mockTxRepo, _, _, handler := setupTransactionTestRouter()

		testTx := newTestTransaction(testUserID)

		router.GET("/ledger/transactions/:id", handler.GetTransaction)

		mockTxRepo.On("FindByIDForUser", mock.Anything, testUserID, testTx.ID).
			Return(testTx, nil)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/transactions/"+testTx.ID.String(), nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		mockTxRepo.AssertExpectations(t)
	})

	t.Run("should return 404 for unknown transaction", func(t *testing.T) {
		router, mockTxRepo, _, _, handler := setupTransactionTestRouter()

		txID := uuid.New()

		router.GET("/ledger/transactions/:id", handler.GetTransaction)

		mockTxRepo.On("FindByIDForUser", mock.Anything, testUserID, txID).
			Return(nil, shared.ErrNotFound)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/transactions/"+txID.String(), nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockTxRepo.AssertExpectations(t)
	})

	t.Run("should return error for invalid ID", func(t *testing.T) {
		router, _, _, _, handler := setupTransactionTestRouter()

		router.GET("/ledger/transactions/:id", handler.GetTransaction)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/transactions/not-a-uuid", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	t.Run("should delete transaction", func(t *testing.T) {
		router, mockTxRepo, _, _, handler := setupTransactionTestRouter()

		testTx := newTestTransaction(testUserID)

		router.DELETE("/ledger/transactions/:id", handler.DeleteTransaction)

		mockTxRepo.On("FindByIDForUser", mock.Anything, testUserID, testTx.ID).
			Return(testTx, nil)
		mockTxRepo.On("Delete", mock.Anything, testTx).
			Return(nil)

		req, _ := http.NewRequest(http.MethodDelete, "/ledger/transactions/"+testTx.ID.String(), nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockTxRepo.AssertExpectations(t)
	})
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	t.Run("should list transactions with pagination meta", func(t *testing.T) {
		router, mockTxRepo, _, _, handler := setupTransactionTestRouter()

		router.GET("/ledger/transactions", handler.ListTransactions)

		transactions := []ledger.Transaction{*newTestTransaction(testUserID), *newTestTransaction(testUserID)}

		mockTxRepo.On("FindAllForUser", mock.Anything, testUserID, mock.AnythingOfType("ledger.TransactionFilter")).
			Return(transactions, nil)
		mockTxRepo.On("CountForUser", mock.Anything, testUserID, mock.AnythingOfType("ledger.TransactionFilter")).
			Return(int64(2), nil)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/transactions?type=EXPENSE&page=1&page_size=10", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		meta := response["meta"].(map[string]interface{})
		assert.Equal(t, float64(2), meta["total"])

		mockTxRepo.AssertExpectations(t)
	})
}
