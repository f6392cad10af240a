package handler

import (
	"net/http"

	"github.com/zetahub/kryptonite/internal/context"
	"github.com/zetahub/kryptonite/internal/errHandler"
	"github.com/zetahub/kryptonite/internal/helper"
	"github.com/zetahub/kryptonite/internal/repository"
	"github.com/zetahub/kryptonite/internal/request"
	"github.com/zetahub/kryptonite/internal/response"
	"github.com/zetahub/kryptonite/internal/smtp"
	"github.com/zetahub/kryptonite/internal/validator"
)

const (
	alreadyVerifiedMessage = "Your email address has been verified already"
	invalidCodeMessage     = "The code you entered is invalid, try again."
)

type VerificationHandler struct {
	UserRepo   repository.UserRepository
	Helper     *helper.HelperRepository
	Mailer     smtp.MailerInterface
	ErrHandler *errHandler.ErrorRepository
}

func NewVerificationHandler(handler *VerificationHandler) *VerificationHandler {
	return &VerificationHandler{
		UserRepo:   handler.UserRepo,
		Helper:     handler.Helper,
		Mailer:     handler.Mailer,
		ErrHandler: handler.ErrHandler,
	}
}

// HandleResendCode regenerates the caller's verification code and emails it.
// Each user owns exactly one active code; regenerating invalidates the
// previous one.
func (h *VerificationHandler) HandleResendCode(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	if user.HasVerifiedEmailAddress() {
		err := response.JSONOkResponse(w, nil, alreadyVerifiedMessage, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	code, err := helper.GenerateRandomCode(verificationCodeLength)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = h.UserRepo.RefreshVerificationCode(user.ID, code)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		emailData := h.Helper.NewEmailData()
		emailData["Name"] = user.FirstName
		emailData["Code"] = code

		return h.Mailer.Send(user.Email, emailData, "verification-code.tmpl")
	})

	message := "A new verification code has been sent to your email address"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleVerifyEmail compares the supplied code against the stored one,
// case-sensitively. Verifying an already-verified account is a no-op
// success. A match grants the withdraw permission.
func (h *VerificationHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Code      string              `json:"code"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	if user.HasVerifiedEmailAddress() {
		err := response.JSONOkResponse(w, nil, alreadyVerifiedMessage, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	input.Validator.Check(validator.MinRunes(input.Code, 8), "The verification code must be 8 characters or more")
	input.Validator.Check(validator.MaxRunes(input.Code, 16), "The verification code must be 16 characters or less")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	if input.Code != user.VerificationCode {
		h.ErrHandler.FailedValidation(w, r, []string{invalidCodeMessage})
		return
	}

	err = h.UserRepo.MarkVerified(user.ID, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Your email has been verified."
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
