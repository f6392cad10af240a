package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zetahub/kryptonite/internal/config"
	"github.com/zetahub/kryptonite/internal/models"
)

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	mockUserRepo := new(MockUserRepo)

	testHelper, _ := newTestHelper()

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	cfg := &config.Config{BaseURL: "http://localhost"}
	cfg.Jwt.SecretKey = "test_secret"

	authHandler := &AuthHandler{
		UserRepo:   mockUserRepo,
		Helper:     testHelper,
		ErrHandler: newTestErrHandler(testHelper),
		Config:     cfg,
	}

	requestBody, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "correctpassword",
	})

	req, err := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()

	authHandler.HandleAuthLogin(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]interface{}
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	require.Contains(t, response, "data")

	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "Expected response['data'] to be a map")

	require.Contains(t, data, "auth_token")
	require.Contains(t, data, "token_expiry")
	require.NotEmpty(t, data["auth_token"])

	mockUserRepo.AssertExpectations(t)
}

func TestHandleAuthLogin_WrongPassword(t *testing.T) {
	mockUserRepo := new(MockUserRepo)

	testHelper, _ := newTestHelper()

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	cfg := &config.Config{BaseURL: "http://localhost"}
	cfg.Jwt.SecretKey = "test_secret"

	authHandler := &AuthHandler{
		UserRepo:   mockUserRepo,
		Helper:     testHelper,
		ErrHandler: newTestErrHandler(testHelper),
		Config:     cfg,
	}

	requestBody, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "wrongpassword",
	})

	req, err := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)

	rr := httptest.NewRecorder()

	authHandler.HandleAuthLogin(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "Incorrect email/password")

	mockUserRepo.AssertExpectations(t)
}

func TestHandleAuthRegister_NewAccount(t *testing.T) {
	mockUserRepo := new(MockUserRepo)
	mockMailer := new(MockMailer)

	testHelper, wg := newTestHelper()

	mockUserRepo.On("GetByEmail", "ama@example.com").Return((*models.User)(nil), false, nil)

	var createdUser *models.User
	mockUserRepo.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			createdUser = args.Get(0).(*models.User)
		}).
		Return("user-1", nil)

	mockMailer.On("Send", "ama@example.com", mock.Anything, mock.Anything).Return(nil)

	cfg := &config.Config{BaseURL: "http://localhost"}

	authHandler := &AuthHandler{
		UserRepo:   mockUserRepo,
		Helper:     testHelper,
		Mailer:     mockMailer,
		ErrHandler: newTestErrHandler(testHelper),
		Config:     cfg,
	}

	requestBody, _ := json.Marshal(map[string]string{
		"email":            "ama@example.com",
		"password":         "C0rrect#Horse9",
		"confirm_password": "C0rrect#Horse9",
		"first_name":       "Ama",
		"last_name":        "Mensah",
	})

	req, err := http.NewRequest("POST", "/auth/register", bytes.NewBuffer(requestBody))
	require.NoError(t, err)

	rr := httptest.NewRecorder()

	authHandler.HandleAuthRegister(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), "verify your email address")

	// fresh accounts can deposit but not withdraw until verified
	require.NotNil(t, createdUser)
	require.Equal(t, []string{models.PermissionDeposit}, []string(createdUser.Permissions))
	require.False(t, createdUser.IsAdmin)
	require.Len(t, createdUser.VerificationCode, 16)

	wg.Wait()

	mockUserRepo.AssertExpectations(t)
	mockMailer.AssertExpectations(t)
}

func TestHandleAuthRegister_AdminOverridePhrase(t *testing.T) {
	mockUserRepo := new(MockUserRepo)
	mockMailer := new(MockMailer)

	testHelper, wg := newTestHelper()

	mockUserRepo.On("GetByEmail", "root@example.com").Return((*models.User)(nil), false, nil)

	var createdUser *models.User
	mockUserRepo.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			createdUser = args.Get(0).(*models.User)
		}).
		Return("user-1", nil)

	mockMailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	cfg := &config.Config{BaseURL: "http://localhost"}
	cfg.Admin.OverridePhrase = "zebra$"

	authHandler := &AuthHandler{
		UserRepo:   mockUserRepo,
		Helper:     testHelper,
		Mailer:     mockMailer,
		ErrHandler: newTestErrHandler(testHelper),
		Config:     cfg,
	}

	requestBody, _ := json.Marshal(map[string]string{
		"email":            "root@example.com",
		"password":         "C0rrect#Horse9",
		"confirm_password": "C0rrect#Horse9",
		"first_name":       "zebra$Kojo",
		"last_name":        "Mensah",
	})

	req, err := http.NewRequest("POST", "/auth/register", bytes.NewBuffer(requestBody))
	require.NoError(t, err)

	rr := httptest.NewRecorder()

	authHandler.HandleAuthRegister(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	// the phrase promotes the account and is stripped from the stored name
	require.NotNil(t, createdUser)
	require.True(t, createdUser.IsAdmin)
	require.Equal(t, "Kojo", createdUser.FirstName)

	wg.Wait()

	mockUserRepo.AssertExpectations(t)
}

func TestHandleAuthRegister_DuplicateEmail(t *testing.T) {
	mockUserRepo := new(MockUserRepo)

	testHelper, _ := newTestHelper()

	mockUserRepo.On("GetByEmail", "taken@example.com").Return(&models.User{ID: "user-9"}, true, nil)

	cfg := &config.Config{BaseURL: "http://localhost"}

	authHandler := &AuthHandler{
		UserRepo:   mockUserRepo,
		Helper:     testHelper,
		ErrHandler: newTestErrHandler(testHelper),
		Config:     cfg,
	}

	requestBody, _ := json.Marshal(map[string]string{
		"email":            "taken@example.com",
		"password":         "C0rrect#Horse9",
		"confirm_password": "C0rrect#Horse9",
		"first_name":       "Ama",
		"last_name":        "Mensah",
	})

	req, err := http.NewRequest("POST", "/auth/register", bytes.NewBuffer(requestBody))
	require.NoError(t, err)

	rr := httptest.NewRecorder()

	authHandler.HandleAuthRegister(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "registered to another account")

	mockUserRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}
