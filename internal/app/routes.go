package app

import (
	"net/http"

	"github.com/zetahub/kryptonite/internal/handler"
	"github.com/zetahub/kryptonite/internal/middleware"
	"github.com/zetahub/kryptonite/internal/models"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config)

	healthHandler := handler.NewHealthCheckHandler(app.errorHandler)

	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		UserRepo:   app.DB.User(),
		Helper:     app.Helper,
		Mailer:     app.Mailer,
		ErrHandler: app.errorHandler,
		Config:     &app.Config,
	})

	verificationHandler := handler.NewVerificationHandler(&handler.VerificationHandler{
		UserRepo:   app.DB.User(),
		Helper:     app.Helper,
		Mailer:     app.Mailer,
		ErrHandler: app.errorHandler,
	})

	bankingHandler := handler.NewBankingHandler(&handler.BankingHandler{
		DB:               app.DB,
		UserRepo:         app.DB.User(),
		DepositRepo:      app.DB.Deposit(),
		WithdrawalRepo:   app.DB.Withdrawal(),
		AuthPinRepo:      app.DB.AuthPin(),
		NotificationRepo: app.DB.Notification(),
		Session:          app.Session,
		Kafka:            app.Kafka,
		Helper:           app.Helper,
		ErrHandler:       app.errorHandler,
	})

	notificationHandler := handler.NewNotificationHandler(&handler.NotificationHandler{
		NotificationRepo: app.DB.Notification(),
		ErrHandler:       app.errorHandler,
	})

	userHandler := handler.NewUserHandler(&handler.UserHandler{
		UserRepo:     app.DB.User(),
		FileUploader: app.FileUploader,
		ErrHandler:   app.errorHandler,
	})

	adminHandler := handler.NewAdminHandler(&handler.AdminHandler{
		DB:               app.DB,
		UserRepo:         app.DB.User(),
		DepositRepo:      app.DB.Deposit(),
		WithdrawalRepo:   app.DB.Withdrawal(),
		AuthPinRepo:      app.DB.AuthPin(),
		NotificationRepo: app.DB.Notification(),
		ErrHandler:       app.errorHandler,
	})

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)

	mux.HandleFunc("POST /auth/register", authHandler.HandleAuthRegister)
	mux.HandleFunc("POST /auth/login", authHandler.HandleAuthLogin)

	mux.Handle("POST /verification/resend", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(verificationHandler.HandleResendCode)))
	mux.Handle("POST /verification/verify", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(verificationHandler.HandleVerifyEmail)))

	mux.Handle("GET /overview", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(bankingHandler.HandleOverview)))

	mux.Handle("POST /deposits", middlewareRepo.RequirePermission(models.PermissionDeposit, http.HandlerFunc(bankingHandler.HandleDepositCreate)))
	mux.Handle("POST /withdrawals", middlewareRepo.RequirePermission(models.PermissionWithdraw, http.HandlerFunc(bankingHandler.HandleWithdrawalCreate)))
	mux.Handle("POST /withdrawals/authenticate", middlewareRepo.RequirePermission(models.PermissionWithdraw, http.HandlerFunc(bankingHandler.HandleWithdrawalAuthenticate)))

	mux.Handle("GET /notifications", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(notificationHandler.HandleListNotifications)))
	mux.Handle("DELETE /notifications/{id}", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(notificationHandler.HandleDeleteNotification)))

	mux.Handle("POST /users/avatar", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(userHandler.HandleChangeAvatar)))

	mux.Handle("GET /admin/users", middlewareRepo.RequireAdmin(http.HandlerFunc(adminHandler.HandleListUsers)))
	mux.Handle("GET /admin/deposits", middlewareRepo.RequireAdmin(http.HandlerFunc(adminHandler.HandleListDeposits)))
	mux.Handle("GET /admin/withdrawals", middlewareRepo.RequireAdmin(http.HandlerFunc(adminHandler.HandleListWithdrawals)))
	mux.Handle("PATCH /admin/users/{id}/balances", middlewareRepo.RequireAdmin(http.HandlerFunc(adminHandler.HandleEditBalances)))
	mux.Handle("PATCH /admin/deposits/{id}/approve", middlewareRepo.RequireAdmin(http.HandlerFunc(adminHandler.HandleApproveDeposit)))
	mux.Handle("PATCH /admin/withdrawals/{id}/approve", middlewareRepo.RequireAdmin(http.HandlerFunc(adminHandler.HandleApproveWithdrawal)))
	mux.Handle("DELETE /admin/users/{id}", middlewareRepo.RequireAdmin(http.HandlerFunc(adminHandler.HandleDeleteUser)))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}
