package handler

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/zetahub/kryptonite/internal/errHandler"
	"github.com/zetahub/kryptonite/internal/repository"
	"github.com/zetahub/kryptonite/internal/request"
	"github.com/zetahub/kryptonite/internal/response"
	"github.com/zetahub/kryptonite/internal/validator"
)

type AdminHandler struct {
	DB               repository.TxRunner
	UserRepo         repository.UserRepository
	DepositRepo      repository.DepositRepository
	WithdrawalRepo   repository.WithdrawalRepository
	AuthPinRepo      repository.AuthPinRepository
	NotificationRepo repository.NotificationRepository
	ErrHandler       *errHandler.ErrorRepository
}

func NewAdminHandler(handler *AdminHandler) *AdminHandler {
	return &AdminHandler{
		DB:               handler.DB,
		UserRepo:         handler.UserRepo,
		DepositRepo:      handler.DepositRepo,
		WithdrawalRepo:   handler.WithdrawalRepo,
		AuthPinRepo:      handler.AuthPinRepo,
		NotificationRepo: handler.NotificationRepo,
		ErrHandler:       handler.ErrHandler,
	}
}

func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	users, err := h.UserRepo.List(queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, users, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleListDeposits(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	deposits, err := h.DepositRepo.ListWithOwners(queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, deposits, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	withdrawals, err := h.WithdrawalRepo.ListWithOwners(queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, withdrawals, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleEditBalances overwrites a user's wallet, bonus and profit balances.
// This is the only crediting path in the system; approving a deposit does
// not touch balances.
func (h *AdminHandler) HandleEditBalances(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Wallet    *float64            `json:"wallet"`
		Bonus     *float64            `json:"bonus"`
		Profit    *float64            `json:"profit"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.Wallet != nil, "Wallet balance is required")
	input.Validator.Check(input.Bonus != nil, "Bonus balance is required")
	input.Validator.Check(input.Profit != nil, "Profit balance is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	id := r.PathValue("id")

	user, found, err := h.UserRepo.GetOne(id)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	_, err = h.UserRepo.UpdateBalances(id, *input.Wallet, *input.Bonus, *input.Profit)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := fmt.Sprintf("Client %s record updated successfully", user.Email)
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleApproveDeposit flips the approval flag only; it does not credit the
// owner's wallet.
func (h *AdminHandler) HandleApproveDeposit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	found, err := h.DepositRepo.Approve(id)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	message := "Deposit approved"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	found, err := h.WithdrawalRepo.Approve(id)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	message := "Withdrawal approved"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleDeleteUser removes a user and their whole record closure: auth
// pins, notifications, withdrawals, deposits and finally the user row, all
// in one transaction.
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	_, found, err := h.UserRepo.GetOne(id)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	err = h.DB.RunInTx(r.Context(), func(tx *sql.Tx) error {
		if err := h.AuthPinRepo.DeleteForUser(id, tx); err != nil {
			return err
		}
		if err := h.NotificationRepo.DeleteForUser(id, tx); err != nil {
			return err
		}
		if err := h.WithdrawalRepo.DeleteForUser(id, tx); err != nil {
			return err
		}
		if err := h.DepositRepo.DeleteForUser(id, tx); err != nil {
			return err
		}

		_, err := h.UserRepo.Delete(id, tx)
		return err
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Client record deleted"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
