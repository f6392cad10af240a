package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zetahub/kryptonite/internal/context"
	"github.com/zetahub/kryptonite/internal/models"
)

const testWalletAddress = "1A2b3C4d5E6f7G8h9I0j1K2L"

func TestHandleDepositCreate_ValidClaim(t *testing.T) {
	mockDepositRepo := new(MockDepositRepo)
	mockNotificationRepo := new(MockNotificationRepo)
	producer := &fakeProducer{}

	testHelper, wg := newTestHelper()

	mockDepositRepo.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			deposit := args.Get(0).(*models.Deposit)
			deposit.ID = "deposit-1"
			deposit.Reference = "DEP-20260830-001"
		}).
		Return(nil)
	mockNotificationRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	bankingHandler := &BankingHandler{
		DB:               &fakeTxRunner{},
		DepositRepo:      mockDepositRepo,
		NotificationRepo: mockNotificationRepo,
		Session:          newFakeSession(),
		Kafka:            producer,
		Helper:           testHelper,
		ErrHandler:       newTestErrHandler(testHelper),
	}

	requestBody, _ := json.Marshal(map[string]any{
		"wallet_type":    "BTC",
		"amount":         250.5,
		"wallet_address": testWalletAddress,
		"transfer_date":  "2026-08-30",
	})

	req, err := http.NewRequest("POST", "/deposits", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	testUser := &models.User{ID: "user-1", FirstName: "Ama", Email: "ama@example.com"}
	req = context.ContextSetAuthenticatedUser(req, testUser)

	rr := httptest.NewRecorder()

	bankingHandler.HandleDepositCreate(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), "DEP-20260830-001")

	wg.Wait()
	require.Equal(t, []string{"transaction.deposit.requested"}, producer.producedTopics())

	mockDepositRepo.AssertExpectations(t)
	mockNotificationRepo.AssertExpectations(t)
}

func TestHandleDepositCreate_RejectsInvalidPayload(t *testing.T) {
	testHelper, _ := newTestHelper()

	bankingHandler := &BankingHandler{
		DB:         &fakeTxRunner{},
		Helper:     testHelper,
		ErrHandler: newTestErrHandler(testHelper),
	}

	requestBody, _ := json.Marshal(map[string]any{
		"wallet_type":    "BTC",
		"amount":         0,
		"wallet_address": "too-short",
		"transfer_date":  "not-a-date",
	})

	req, err := http.NewRequest("POST", "/deposits", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req = context.ContextSetAuthenticatedUser(req, &models.User{ID: "user-1"})

	rr := httptest.NewRecorder()

	bankingHandler.HandleDepositCreate(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandleWithdrawalCreate_IssuesAuthPin(t *testing.T) {
	mockWithdrawalRepo := new(MockWithdrawalRepo)
	mockAuthPinRepo := new(MockAuthPinRepo)
	mockNotificationRepo := new(MockNotificationRepo)
	session := newFakeSession()
	producer := &fakeProducer{}

	testHelper, wg := newTestHelper()

	var issuedPin string

	mockWithdrawalRepo.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			withdrawal := args.Get(0).(*models.Withdrawal)
			withdrawal.ID = "withdrawal-1"
			withdrawal.Reference = "WTH-20260830-001"
		}).
		Return(nil)
	mockAuthPinRepo.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			pin := args.Get(0).(*models.AuthPin)
			issuedPin = pin.Code
		}).
		Return(nil)
	mockNotificationRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	bankingHandler := &BankingHandler{
		DB:               &fakeTxRunner{},
		WithdrawalRepo:   mockWithdrawalRepo,
		AuthPinRepo:      mockAuthPinRepo,
		NotificationRepo: mockNotificationRepo,
		Session:          session,
		Kafka:            producer,
		Helper:           testHelper,
		ErrHandler:       newTestErrHandler(testHelper),
	}

	requestBody, _ := json.Marshal(map[string]any{
		"wallet_type":    "ETH",
		"amount":         120.75,
		"wallet_address": testWalletAddress,
	})

	req, err := http.NewRequest("POST", "/withdrawals", bytes.NewBuffer(requestBody))
	require.NoError(t, err)

	testUser := &models.User{ID: "user-1", FirstName: "Ama", Email: "ama@example.com"}
	req = context.ContextSetAuthenticatedUser(req, testUser)

	rr := httptest.NewRecorder()

	bankingHandler.HandleWithdrawalCreate(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), "authentication code")

	// the pin is issued alongside the withdrawal and shares its code
	require.Len(t, issuedPin, 16)

	// the submitted amount is remembered for the authentication step
	amount, err := session.PendingWithdrawal("user-1")
	require.NoError(t, err)
	require.Equal(t, 120.75, amount)

	wg.Wait()
	require.Equal(t, []string{"transaction.withdrawal.requested"}, producer.producedTopics())

	mockWithdrawalRepo.AssertExpectations(t)
	mockAuthPinRepo.AssertExpectations(t)
	mockNotificationRepo.AssertExpectations(t)
}

func TestHandleWithdrawalCreate_DuplicatePinAbortsSubmission(t *testing.T) {
	mockWithdrawalRepo := new(MockWithdrawalRepo)
	mockAuthPinRepo := new(MockAuthPinRepo)
	mockNotificationRepo := new(MockNotificationRepo)
	session := newFakeSession()
	producer := &fakeProducer{}

	testHelper, wg := newTestHelper()

	mockWithdrawalRepo.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			withdrawal := args.Get(0).(*models.Withdrawal)
			withdrawal.ID = "withdrawal-1"
		}).
		Return(nil)

	// a colliding pin code surfaces as a unique violation inside the
	// transaction and fails the whole submission, no retry
	mockAuthPinRepo.On("Insert", mock.Anything, mock.Anything).Return(&pq.Error{Code: "23505"})

	bankingHandler := &BankingHandler{
		DB:               &fakeTxRunner{},
		WithdrawalRepo:   mockWithdrawalRepo,
		AuthPinRepo:      mockAuthPinRepo,
		NotificationRepo: mockNotificationRepo,
		Session:          session,
		Kafka:            producer,
		Helper:           testHelper,
		ErrHandler:       newTestErrHandler(testHelper),
	}

	requestBody, _ := json.Marshal(map[string]any{
		"wallet_type":    "ETH",
		"amount":         120.75,
		"wallet_address": testWalletAddress,
	})

	req, err := http.NewRequest("POST", "/withdrawals", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req = context.ContextSetAuthenticatedUser(req, &models.User{ID: "user-1"})

	rr := httptest.NewRecorder()

	bankingHandler.HandleWithdrawalCreate(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "Could not issue an authentication code")

	// nothing after the failed transaction runs
	amount, err := session.PendingWithdrawal("user-1")
	require.NoError(t, err)
	require.Zero(t, amount)

	wg.Wait()
	require.Empty(t, producer.producedTopics())

	mockNotificationRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	mockWithdrawalRepo.AssertExpectations(t)
	mockAuthPinRepo.AssertExpectations(t)
}

func TestHandleWithdrawalAuthenticate_CreditsOnce(t *testing.T) {
	mockUserRepo := new(MockUserRepo)
	mockAuthPinRepo := new(MockAuthPinRepo)
	session := newFakeSession()
	producer := &fakeProducer{}

	testHelper, wg := newTestHelper()

	pin := &models.AuthPin{ID: "pin-1", Code: "GxT7kPqW2mNvR8sZ", UserID: "user-1", WithdrawalID: "withdrawal-1"}

	mockAuthPinRepo.On("FindUnused", pin.Code, "user-1").Return(pin, true, nil)
	mockAuthPinRepo.On("MarkUsed", "pin-1", mock.Anything).Return(nil)
	mockUserRepo.On("CreditTotalWithdrawals", "user-1", 120.75, mock.Anything).Return(nil)

	require.NoError(t, session.SetPendingWithdrawal("user-1", 120.75))

	bankingHandler := &BankingHandler{
		DB:          &fakeTxRunner{},
		UserRepo:    mockUserRepo,
		AuthPinRepo: mockAuthPinRepo,
		Session:     session,
		Kafka:       producer,
		Helper:      testHelper,
		ErrHandler:  newTestErrHandler(testHelper),
	}

	requestBody, _ := json.Marshal(map[string]string{"code": pin.Code})

	req, err := http.NewRequest("POST", "/withdrawals/authenticate", bytes.NewBuffer(requestBody))
	require.NoError(t, err)

	testUser := &models.User{ID: "user-1", FirstName: "Ama", Email: "ama@example.com"}
	req = context.ContextSetAuthenticatedUser(req, testUser)

	rr := httptest.NewRecorder()

	bankingHandler.HandleWithdrawalAuthenticate(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "withdrawal is being processed")

	wg.Wait()
	require.Equal(t, []string{"transaction.withdrawal.authenticated"}, producer.producedTopics())

	// the pending amount is cleared once it has been credited
	amount, err := session.PendingWithdrawal("user-1")
	require.NoError(t, err)
	require.Zero(t, amount)

	mockAuthPinRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
}

func TestHandleWithdrawalAuthenticate_RejectsUsedCode(t *testing.T) {
	mockUserRepo := new(MockUserRepo)
	mockAuthPinRepo := new(MockAuthPinRepo)

	testHelper, _ := newTestHelper()

	// consumed pins never match the unused lookup
	mockAuthPinRepo.On("FindUnused", "GxT7kPqW2mNvR8sZ", "user-1").Return((*models.AuthPin)(nil), false, nil)

	bankingHandler := &BankingHandler{
		DB:          &fakeTxRunner{},
		UserRepo:    mockUserRepo,
		AuthPinRepo: mockAuthPinRepo,
		Session:     newFakeSession(),
		Kafka:       &fakeProducer{},
		Helper:      testHelper,
		ErrHandler:  newTestErrHandler(testHelper),
	}

	requestBody, _ := json.Marshal(map[string]string{"code": "GxT7kPqW2mNvR8sZ"})

	req, err := http.NewRequest("POST", "/withdrawals/authenticate", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req = context.ContextSetAuthenticatedUser(req, &models.User{ID: "user-1"})

	rr := httptest.NewRecorder()

	bankingHandler.HandleWithdrawalAuthenticate(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid authentication code")

	mockAuthPinRepo.AssertExpectations(t)
	mockUserRepo.AssertNotCalled(t, "CreditTotalWithdrawals", mock.Anything, mock.Anything, mock.Anything)
	mockAuthPinRepo.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything)
}

func TestHandleOverview_ReturnsBalancesAndRecentActivity(t *testing.T) {
	mockDepositRepo := new(MockDepositRepo)
	mockWithdrawalRepo := new(MockWithdrawalRepo)
	mockNotificationRepo := new(MockNotificationRepo)

	testHelper, _ := newTestHelper()

	mockDepositRepo.On("ListForUser", "user-1", 10).Return([]models.Deposit{{ID: "deposit-1"}}, nil)
	mockWithdrawalRepo.On("ListForUser", "user-1", 10).Return([]models.Withdrawal{}, nil)
	mockNotificationRepo.On("ListUnreadForUser", "user-1", 10).Return([]models.Notification{}, nil)
	mockNotificationRepo.On("CountUnreadForUser", "user-1").Return(3, nil)

	bankingHandler := &BankingHandler{
		DepositRepo:      mockDepositRepo,
		WithdrawalRepo:   mockWithdrawalRepo,
		NotificationRepo: mockNotificationRepo,
		Helper:           testHelper,
		ErrHandler:       newTestErrHandler(testHelper),
	}

	req, err := http.NewRequest("GET", "/overview", nil)
	require.NoError(t, err)

	testUser := &models.User{ID: "user-1", WalletBalance: 1000, BonusBalance: 50, ProfitBalance: 25}
	req = context.ContextSetAuthenticatedUser(req, testUser)

	rr := httptest.NewRecorder()

	bankingHandler.HandleOverview(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "Expected response['data'] to be a map")

	require.Equal(t, float64(1000), data["wallet_balance"])
	require.Equal(t, float64(3), data["notification_count"])

	mockDepositRepo.AssertExpectations(t)
	mockWithdrawalRepo.AssertExpectations(t)
	mockNotificationRepo.AssertExpectations(t)
}
