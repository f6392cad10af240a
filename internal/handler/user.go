package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/zetahub/kryptonite/internal/context"
	"github.com/zetahub/kryptonite/internal/errHandler"
	"github.com/zetahub/kryptonite/internal/file"
	"github.com/zetahub/kryptonite/internal/repository"
	"github.com/zetahub/kryptonite/internal/response"
)

type UserHandler struct {
	UserRepo     repository.UserRepository
	FileUploader *file.FileUploader
	ErrHandler   *errHandler.ErrorRepository
}

func NewUserHandler(handler *UserHandler) *UserHandler {
	return &UserHandler{
		UserRepo:     handler.UserRepo,
		FileUploader: handler.FileUploader,
		ErrHandler:   handler.ErrHandler,
	}
}

// HandleChangeAvatar accepts an avatar image, rejects disallowed types and
// oversized files before any bytes leave the server, uploads the rest to the
// storage provider and stores the returned URL on the user.
func (h *UserHandler) HandleChangeAvatar(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(10 << 20) // 10 MB
	if err != nil {
		message := errors.New("invalid request data")
		h.ErrHandler.BadRequest(w, r, message)
		return
	}

	avatar, header, err := r.FormFile("avatar")
	if err != nil {
		message := errors.New("error retrieving the file")
		h.ErrHandler.BadRequest(w, r, message)
		return
	}
	defer avatar.Close()

	if err := h.FileUploader.ValidateImage(header); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	fileExtension := filepath.Ext(header.Filename)

	// Save the file temporarily to the server
	tempFile, err := os.CreateTemp("", fmt.Sprintf("upload-*%s", fileExtension))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	defer tempFile.Close()
	defer os.Remove(tempFile.Name())

	_, err = tempFile.ReadFrom(avatar)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	fileUrl, err := h.FileUploader.UploadFile(tempFile.Name())
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	err = h.UserRepo.ChangeAvatar(user.ID, fileUrl)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]any{
		"avatar": fileUrl,
	}
	message := "Avatar updated successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
