package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/zetahub/kryptonite/internal/config"
	"github.com/zetahub/kryptonite/internal/errHandler"
	"github.com/zetahub/kryptonite/internal/helper"
	"github.com/zetahub/kryptonite/internal/models"
	"github.com/zetahub/kryptonite/internal/repository"
	"github.com/zetahub/kryptonite/internal/request"
	"github.com/zetahub/kryptonite/internal/response"
	"github.com/zetahub/kryptonite/internal/smtp"
	"github.com/zetahub/kryptonite/internal/validator"

	"database/sql"

	"github.com/cradoe/gopass"
	"github.com/pascaldekloe/jwt"
)

// Email verification codes are 16 random alphanumerics.
const verificationCodeLength = 16

type AuthHandler struct {
	UserRepo   repository.UserRepository
	Helper     *helper.HelperRepository
	Mailer     smtp.MailerInterface
	ErrHandler *errHandler.ErrorRepository
	Config     *config.Config
}

func NewAuthHandler(handler *AuthHandler) *AuthHandler {
	return &AuthHandler{
		UserRepo:   handler.UserRepo,
		Helper:     handler.Helper,
		Mailer:     handler.Mailer,
		ErrHandler: handler.ErrHandler,
		Config:     handler.Config,
	}
}

// New account registration:
// Input validations and checking that the email has not been registered already.
// Every account starts with the deposit permission only; withdraw is granted
// at email verification. A first name starting with the configured override
// phrase creates an admin account, with the phrase stripped from the name.
func (h *AuthHandler) HandleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email           string              `json:"email"`
		Password        string              `json:"password"`
		ConfirmPassword string              `json:"confirm_password"`
		FirstName       string              `json:"first_name"`
		LastName        string              `json:"last_name"`
		Street          string              `json:"street"`
		City            string              `json:"city"`
		State           string              `json:"state"`
		Country         string              `json:"country"`
		Zipcode         string              `json:"zipcode"`
		Validator       validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	// we need to validate the password to make sure it meets the minimum requirements
	// the Validate function returns a slice of errors if the password does not meet the requirements
	_, errs := gopass.Validate(input.Password)

	if errs != nil {
		// return any errors found before we check the other fields
		// It's important that users have a strong password
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	_, found, err := h.UserRepo.GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")

	// we want to make sure no two users have the same email
	input.Validator.Check(!found, "The email address you used is registered to another account already")

	input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
	input.Validator.Check(validator.MinRunes(input.FirstName, 3), "First name is too short")
	input.Validator.Check(validator.MaxRunes(input.FirstName, 35), "First name is too long")

	input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")
	input.Validator.Check(validator.MinRunes(input.LastName, 3), "Last name is too short")
	input.Validator.Check(validator.MaxRunes(input.LastName, 35), "Last name is too long")

	input.Validator.Check(input.ConfirmPassword == input.Password, "Password fields did not match")

	if input.Zipcode != "" {
		input.Validator.Check(validator.Matches(input.Zipcode, validator.RgxZipcode), "Please provide a valid postal code")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	verificationCode, err := helper.GenerateRandomCode(verificationCodeLength)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	createdUser := &models.User{
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Email:            input.Email,
		HashedPassword:   hashedPassword,
		Street:           sql.NullString{String: input.Street, Valid: input.Street != ""},
		City:             sql.NullString{String: input.City, Valid: input.City != ""},
		State:            sql.NullString{String: input.State, Valid: input.State != ""},
		Country:          sql.NullString{String: input.Country, Valid: input.Country != ""},
		Zipcode:          sql.NullString{String: input.Zipcode, Valid: input.Zipcode != ""},
		Permissions:      []string{models.PermissionDeposit},
		VerificationCode: verificationCode,
	}

	phrase := h.Config.Admin.OverridePhrase
	if phrase != "" && strings.HasPrefix(createdUser.FirstName, phrase) {
		createdUser.IsAdmin = true
		createdUser.FirstName = strings.TrimPrefix(createdUser.FirstName, phrase)
	}

	_, err = h.UserRepo.Insert(createdUser, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	// the verification email is best-effort; registration succeeds either way
	// and the code can be re-sent later
	h.Helper.BackgroundTask(r, func() error {
		emailData := h.Helper.NewEmailData()
		emailData["Name"] = createdUser.FirstName
		emailData["Code"] = verificationCode

		return h.Mailer.Send(createdUser.Email, emailData, "verification-code.tmpl")
	})

	message := "Account created successfully. Please verify your email address"

	err = response.JSONCreatedResponse(w, nil, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user, found, err := h.UserRepo.GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(found, "Incorrect email/password")

	if found {
		passwordMatches, err := gopass.ComparePasswordAndHash(input.Password, user.HashedPassword)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		input.Validator.Check(validator.NotBlank(input.Password), "Password is required")
		input.Validator.Check(passwordMatches, "Incorrect email/password")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	var claims jwt.Claims
	claims.Subject = user.ID

	expiry := time.Now().Add(24 * time.Hour)
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.NotBefore = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]string{
		"auth_token":   string(jwtBytes),
		"token_expiry": expiry.Format(time.RFC3339),
	}
	message := "Login succesful"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
