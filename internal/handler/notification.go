package handler

import (
	"net/http"

	"github.com/zetahub/kryptonite/internal/context"
	"github.com/zetahub/kryptonite/internal/errHandler"
	"github.com/zetahub/kryptonite/internal/repository"
	"github.com/zetahub/kryptonite/internal/response"
)

type NotificationHandler struct {
	NotificationRepo repository.NotificationRepository
	ErrHandler       *errHandler.ErrorRepository
}

func NewNotificationHandler(handler *NotificationHandler) *NotificationHandler {
	return &NotificationHandler{
		NotificationRepo: handler.NotificationRepo,
		ErrHandler:       handler.ErrHandler,
	}
}

func (h *NotificationHandler) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	queryValues := retrieveUrlQueryValues(r)

	notifications, err := h.NotificationRepo.ListUnreadForUser(user.ID, queryValues.Limit)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	count, err := h.NotificationRepo.CountUnreadForUser(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]any{
		"notifications": notifications,
		"unread_count":  count,
	}

	err = response.JSONOkResponse(w, data, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleDeleteNotification removes the notification outright; reading a
// notification deletes it rather than flipping its status.
func (h *NotificationHandler) HandleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	id := r.PathValue("id")

	found, err := h.NotificationRepo.Delete(id, user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	message := "Notification marked as read"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
