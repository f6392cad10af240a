package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/zetahub/kryptonite/internal/errHandler"
	"github.com/zetahub/kryptonite/internal/helper"
	"github.com/zetahub/kryptonite/internal/models"
)

var errTxFailed = errors.New("transaction failed")

// MockUserRepo implements UserRepository but only mocks the needed methods.
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Insert(user *models.User, tx *sql.Tx) (string, error) {
	args := m.Called(user, tx)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepo) GetOne(id string) (*models.User, bool, error) {
	args := m.Called(id)
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) GetByEmail(email string) (*models.User, bool, error) {
	args := m.Called(email)
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) List(limit, offset int) ([]models.User, error) {
	return nil, nil
}

func (m *MockUserRepo) MarkVerified(id string, tx *sql.Tx) error {
	args := m.Called(id, tx)
	return args.Error(0)
}

func (m *MockUserRepo) RefreshVerificationCode(id, code string) error {
	args := m.Called(id, code)
	return args.Error(0)
}

func (m *MockUserRepo) UpdateBalances(id string, wallet, bonus, profit float64) (bool, error) {
	args := m.Called(id, wallet, bonus, profit)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) CreditTotalWithdrawals(id string, amount float64, tx *sql.Tx) error {
	args := m.Called(id, amount, tx)
	return args.Error(0)
}

func (m *MockUserRepo) ChangeAvatar(id, avatar string) error {
	return nil
}

func (m *MockUserRepo) Delete(id string, tx *sql.Tx) (bool, error) {
	args := m.Called(id, tx)
	return args.Bool(0), args.Error(1)
}

type MockDepositRepo struct {
	mock.Mock
}

func (m *MockDepositRepo) Insert(deposit *models.Deposit, tx *sql.Tx) error {
	args := m.Called(deposit, tx)
	return args.Error(0)
}

func (m *MockDepositRepo) ListForUser(userID string, limit int) ([]models.Deposit, error) {
	args := m.Called(userID, limit)
	return args.Get(0).([]models.Deposit), args.Error(1)
}

func (m *MockDepositRepo) ListWithOwners(limit, offset int) ([]models.DepositWithOwner, error) {
	return nil, nil
}

func (m *MockDepositRepo) Approve(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDepositRepo) DeleteForUser(userID string, tx *sql.Tx) error {
	args := m.Called(userID, tx)
	return args.Error(0)
}

type MockWithdrawalRepo struct {
	mock.Mock
}

func (m *MockWithdrawalRepo) Insert(withdrawal *models.Withdrawal, tx *sql.Tx) error {
	args := m.Called(withdrawal, tx)
	return args.Error(0)
}

func (m *MockWithdrawalRepo) ListForUser(userID string, limit int) ([]models.Withdrawal, error) {
	args := m.Called(userID, limit)
	return args.Get(0).([]models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepo) ListWithOwners(limit, offset int) ([]models.WithdrawalWithOwner, error) {
	return nil, nil
}

func (m *MockWithdrawalRepo) Approve(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockWithdrawalRepo) DeleteForUser(userID string, tx *sql.Tx) error {
	args := m.Called(userID, tx)
	return args.Error(0)
}

type MockAuthPinRepo struct {
	mock.Mock
}

func (m *MockAuthPinRepo) Insert(pin *models.AuthPin, tx *sql.Tx) error {
	args := m.Called(pin, tx)
	return args.Error(0)
}

func (m *MockAuthPinRepo) FindUnused(code, userID string) (*models.AuthPin, bool, error) {
	args := m.Called(code, userID)
	return args.Get(0).(*models.AuthPin), args.Bool(1), args.Error(2)
}

func (m *MockAuthPinRepo) MarkUsed(id string, tx *sql.Tx) error {
	args := m.Called(id, tx)
	return args.Error(0)
}

func (m *MockAuthPinRepo) DeleteForUser(userID string, tx *sql.Tx) error {
	args := m.Called(userID, tx)
	return args.Error(0)
}

type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Insert(notification *models.Notification, tx *sql.Tx) error {
	args := m.Called(notification, tx)
	return args.Error(0)
}

func (m *MockNotificationRepo) ListUnreadForUser(userID string, limit int) ([]models.Notification, error) {
	args := m.Called(userID, limit)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationRepo) CountUnreadForUser(userID string) (int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepo) Delete(id, listenerID string) (bool, error) {
	args := m.Called(id, listenerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationRepo) DeleteForUser(userID string, tx *sql.Tx) error {
	args := m.Called(userID, tx)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(recipient string, data any, patterns ...string) error {
	args := m.Called(recipient, data, patterns)
	return args.Error(0)
}

// fakeTxRunner runs the transaction function with a nil tx so repository
// mocks see the same arguments the handler passed.
type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// fakeSession keeps pending withdrawal amounts in memory.
type fakeSession struct {
	mu      sync.Mutex
	amounts map[string]float64
}

func newFakeSession() *fakeSession {
	return &fakeSession{amounts: make(map[string]float64)}
}

func (f *fakeSession) SetPendingWithdrawal(userID string, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts[userID] = amount
	return nil
}

func (f *fakeSession) PendingWithdrawal(userID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amounts[userID], nil
}

func (f *fakeSession) ClearPendingWithdrawal(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.amounts, userID)
	return nil
}

// fakeProducer records produced messages. Events are produced from
// background tasks, so callers must wait on the helper's WaitGroup before
// inspecting it.
type fakeProducer struct {
	mu       sync.Mutex
	topics   []string
	messages []string
}

func (f *fakeProducer) ProduceMessage(topic, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeProducer) producedTopics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.topics...)
}

func newTestHelper() (*helper.HelperRepository, *sync.WaitGroup) {
	var baseURL = "http://localhost"
	var wg sync.WaitGroup
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return helper.New(&baseURL, &wg, logger), &wg
}

func newTestErrHandler(help *helper.HelperRepository) *errHandler.ErrorRepository {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return errHandler.New("", nil, logger, help)
}
