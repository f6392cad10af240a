package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zetahub/kryptonite/internal/context"
	"github.com/zetahub/kryptonite/internal/errHandler"
	"github.com/zetahub/kryptonite/internal/funcs"
	"github.com/zetahub/kryptonite/internal/helper"
	"github.com/zetahub/kryptonite/internal/models"
	"github.com/zetahub/kryptonite/internal/repository"
	"github.com/zetahub/kryptonite/internal/request"
	"github.com/zetahub/kryptonite/internal/response"
	"github.com/zetahub/kryptonite/internal/session"
	"github.com/zetahub/kryptonite/internal/stream"
	"github.com/zetahub/kryptonite/internal/validator"
)

var (
	ErrInvalidAuthCode  = errors.New("invalid authentication code, please try again")
	ErrDuplicateAuthPin = errors.New("could not issue an authentication code for this request, please try again")
)

// One-time withdrawal codes are 16 random alphanumerics.
const authPinLength = 16

const (
	depositRequestedTopic        = "transaction.deposit.requested"
	withdrawalRequestedTopic     = "transaction.withdrawal.requested"
	withdrawalAuthenticatedTopic = "transaction.withdrawal.authenticated"
)

type BankingHandler struct {
	DB               repository.TxRunner
	UserRepo         repository.UserRepository
	DepositRepo      repository.DepositRepository
	WithdrawalRepo   repository.WithdrawalRepository
	AuthPinRepo      repository.AuthPinRepository
	NotificationRepo repository.NotificationRepository
	Session          session.Store
	Kafka            stream.Producer
	Helper           *helper.HelperRepository
	ErrHandler       *errHandler.ErrorRepository
}

func NewBankingHandler(handler *BankingHandler) *BankingHandler {
	return &BankingHandler{
		DB:               handler.DB,
		UserRepo:         handler.UserRepo,
		DepositRepo:      handler.DepositRepo,
		WithdrawalRepo:   handler.WithdrawalRepo,
		AuthPinRepo:      handler.AuthPinRepo,
		NotificationRepo: handler.NotificationRepo,
		Session:          handler.Session,
		Kafka:            handler.Kafka,
		Helper:           handler.Helper,
		ErrHandler:       handler.ErrHandler,
	}
}

// TransactionEvent is the message produced for the transaction mail worker
// whenever a deposit or withdrawal changes state.
type TransactionEvent struct {
	UserEmail  string  `json:"user_email"`
	UserName   string  `json:"user_name"`
	Amount     float64 `json:"amount"`
	WalletType string  `json:"wallet_type"`
	Reference  string  `json:"reference"`
}

func (h *BankingHandler) produceTransactionEvent(r *http.Request, topic string, event *TransactionEvent) {
	h.Helper.BackgroundTask(r, func() error {
		jsonMessage, err := json.Marshal(event)
		if err != nil {
			return err
		}

		return h.Kafka.ProduceMessage(topic, string(jsonMessage))
	})
}

// HandleDepositCreate registers a deposit claim:
// Step 1: validate the submitted wallet type, amount, address and date
// Step 2: create the deposit and its notification in one transaction
// Step 3: produce an event so the mail worker can notify the user
// The wallet balance is untouched; crediting happens after an admin has
// verified the claim.
func (h *BankingHandler) HandleDepositCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		WalletType    string              `json:"wallet_type"`
		Amount        float64             `json:"amount"`
		WalletAddress string              `json:"wallet_address"`
		Description   string              `json:"description"`
		TransferDate  string              `json:"transfer_date"`
		Validator     validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.WalletType), "Wallet type is required")
	input.Validator.Check(validator.Matches(input.WalletType, validator.RgxAlphanumeric), "Wallet type must be alphanumeric")

	input.Validator.Check(input.Amount > 0, "Amount is required")

	input.Validator.Check(validator.NotBlank(input.WalletAddress), "Wallet address is required")
	input.Validator.Check(validator.Matches(input.WalletAddress, validator.RgxWalletAddress), "Please enter a valid wallet address")

	input.Validator.Check(validator.NotBlank(input.TransferDate), "Date is required")

	var transferDate time.Time
	if input.TransferDate != "" {
		transferDate, err = time.Parse("2006-01-02", input.TransferDate)
		input.Validator.Check(err == nil, "Please enter a valid date")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	deposit := &models.Deposit{
		UserID:        user.ID,
		Amount:        input.Amount,
		WalletType:    input.WalletType,
		WalletAddress: input.WalletAddress,
		Description:   sql.NullString{String: input.Description, Valid: input.Description != ""},
		TransferDate:  transferDate,
		Details:       fmt.Sprintf("Submitted a deposit claim of %s %s", funcs.FormatAmount(input.Amount), input.WalletType),
	}

	err = h.DB.RunInTx(r.Context(), func(tx *sql.Tx) error {
		if err := h.DepositRepo.Insert(deposit, tx); err != nil {
			return err
		}

		notification := &models.Notification{
			ListenerID:  user.ID,
			Description: fmt.Sprintf("Submitted deposit request with reference ID - %s", deposit.Reference),
		}
		return h.NotificationRepo.Insert(notification, tx)
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.produceTransactionEvent(r, depositRequestedTopic, &TransactionEvent{
		UserEmail:  user.Email,
		UserName:   user.FirstName,
		Amount:     deposit.Amount,
		WalletType: deposit.WalletType,
		Reference:  deposit.Reference,
	})

	data := map[string]any{
		"id":        deposit.ID,
		"reference": deposit.Reference,
		"amount":    deposit.Amount,
		"approved":  deposit.Approved,
	}
	message := "Your deposit claim has been submitted. Your account will be credited immediately it is verified"
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleWithdrawalCreate registers a withdrawal request:
// Step 1: validate the submitted wallet type, amount and address
// Step 2: in one transaction, create the withdrawal, issue its one-time
// auth pin (1:1, code copied onto the withdrawal for display) and create
// the notification
// Step 3: remember the submitted amount in the caller's session; it is the
// amount credited to total withdrawals at authentication time, and only the
// most recent submission survives
// Step 4: produce an event so the mail worker can notify the user
func (h *BankingHandler) HandleWithdrawalCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		WalletType    string              `json:"wallet_type"`
		Amount        float64             `json:"amount"`
		WalletAddress string              `json:"wallet_address"`
		Validator     validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.WalletType), "Wallet type is required")
	input.Validator.Check(validator.Matches(input.WalletType, validator.RgxAlphanumeric), "Wallet type must be alphanumeric")

	input.Validator.Check(input.Amount > 0, "Amount is required")

	input.Validator.Check(validator.NotBlank(input.WalletAddress), "Wallet address is required")
	input.Validator.Check(validator.Matches(input.WalletAddress, validator.RgxWalletAddress), "Please enter a valid wallet address")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	code, err := helper.GenerateRandomCode(authPinLength)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	withdrawal := &models.Withdrawal{
		UserID:        user.ID,
		Amount:        input.Amount,
		WalletType:    input.WalletType,
		WalletAddress: input.WalletAddress,
		Pin:           code,
		Details: fmt.Sprintf("Initiated a withdrawal of $%s into %s wallet address - %s",
			funcs.FormatAmount(input.Amount), input.WalletType, input.WalletAddress),
	}

	err = h.DB.RunInTx(r.Context(), func(tx *sql.Tx) error {
		if err := h.WithdrawalRepo.Insert(withdrawal, tx); err != nil {
			return err
		}

		pin := &models.AuthPin{
			Code:         code,
			UserID:       user.ID,
			WithdrawalID: withdrawal.ID,
		}
		if err := h.AuthPinRepo.Insert(pin, tx); err != nil {
			return err
		}

		notification := &models.Notification{
			ListenerID:  user.ID,
			Description: fmt.Sprintf("Submitted withdrawal request with reference ID - %s", withdrawal.Reference),
		}
		return h.NotificationRepo.Insert(notification, tx)
	})
	if err != nil {
		// a colliding pin code fails the whole submission; no retry
		if repository.IsUniqueViolation(err) {
			h.ErrHandler.BadRequest(w, r, ErrDuplicateAuthPin)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = h.Session.SetPendingWithdrawal(user.ID, withdrawal.Amount)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.produceTransactionEvent(r, withdrawalRequestedTopic, &TransactionEvent{
		UserEmail:  user.Email,
		UserName:   user.FirstName,
		Amount:     withdrawal.Amount,
		WalletType: withdrawal.WalletType,
		Reference:  withdrawal.Reference,
	})

	data := map[string]any{
		"id":        withdrawal.ID,
		"reference": withdrawal.Reference,
		"amount":    withdrawal.Amount,
		"approved":  withdrawal.Approved,
	}
	message := "Please enter your authentication code"
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleWithdrawalAuthenticate consumes a one-time pin:
// the lookup is filtered on has_been_used = false, so a consumed pin can
// never match again. Marking the pin used and crediting the session-held
// amount to the user's cumulative withdrawals happen in one transaction;
// either both writes commit or neither does.
func (h *BankingHandler) HandleWithdrawalAuthenticate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Code      string              `json:"code"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Code), "Please enter your authentication code")
	input.Validator.Check(validator.MinRunes(input.Code, 4), "Your authentication code must be 4 characters or more")
	input.Validator.Check(validator.MaxRunes(input.Code, 48), "Your authentication code must be 48 characters or less")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	pin, found, err := h.AuthPinRepo.FindUnused(input.Code, user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.FailedValidation(w, r, []string{ErrInvalidAuthCode.Error()})
		return
	}

	amount, err := h.Session.PendingWithdrawal(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = h.DB.RunInTx(r.Context(), func(tx *sql.Tx) error {
		if err := h.AuthPinRepo.MarkUsed(pin.ID, tx); err != nil {
			return err
		}

		return h.UserRepo.CreditTotalWithdrawals(user.ID, amount, tx)
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		return h.Session.ClearPendingWithdrawal(user.ID)
	})

	h.produceTransactionEvent(r, withdrawalAuthenticatedTopic, &TransactionEvent{
		UserEmail: user.Email,
		UserName:  user.FirstName,
		Amount:    amount,
	})

	message := "Your withdrawal is being processed, you will be credited shortly."
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleOverview serves the banking dashboard: the caller's most recent
// deposits, withdrawals and unread notifications, plus balances.
func (h *BankingHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	deposits, err := h.DepositRepo.ListForUser(user.ID, 10)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	withdrawals, err := h.WithdrawalRepo.ListForUser(user.ID, 10)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	notifications, err := h.NotificationRepo.ListUnreadForUser(user.ID, 10)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	notificationCount, err := h.NotificationRepo.CountUnreadForUser(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]any{
		"wallet_balance":     user.WalletBalance,
		"bonus_balance":      user.BonusBalance,
		"profit_balance":     user.ProfitBalance,
		"total_withdrawals":  user.TotalWithdrawals,
		"email_verified":     user.HasVerifiedEmailAddress(),
		"deposits":           deposits,
		"withdrawals":        withdrawals,
		"notifications":      notifications,
		"notification_count": notificationCount,
	}

	err = response.JSONOkResponse(w, data, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
