/*
Package handler provides the HTTP handlers and routing setup for the relay server.

This file contains the avatar storage handlers. Clients upload avatar images
straight to the object store via time-limited presigned URLs and then announce
the resulting reference over the relay; the server never touches image bytes.
*/
package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"relaychat/internal/app/storage"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/req"
	"relaychat/internal/pkg/resp"
)

// PresignAvatarInput defines the JSON input for generating an upload URL.
type PresignAvatarInput struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// HandlePresignAvatarUpload creates an HTTP HandlerFunc that generates a
// time-limited presigned URL for uploading an avatar image.
func HandlePresignAvatarUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.StorageService == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageUnavailable))
			return
		}

		var input PresignAvatarInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := storage.ValidateAvatarSize(input.FileSize); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := storage.ValidateAvatarType(input.FileName, input.MimeType); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		fileExt := strings.ToLower(filepath.Ext(input.FileName))
		fileKey := fmt.Sprintf("%s%s%s", storage.AvatarKeyPrefix, uuid.NewString(), fileExt)

		url, err := deps.StorageService.PresignUpload(
			r.Context(),
			fileKey,
			input.MimeType,
			input.FileSize,
			storage.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		data := map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandlePresignAvatarDownload creates an HTTP HandlerFunc that generates a
// time-limited presigned URL for downloading a previously uploaded avatar.
func HandlePresignAvatarDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.StorageService == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageUnavailable))
			return
		}

		fileKey := r.URL.Query().Get("key")
		if fileKey == "" || !strings.HasPrefix(fileKey, storage.AvatarKeyPrefix) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		url, err := deps.StorageService.PresignDownload(r.Context(), fileKey, storage.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		data := map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
		}
		resp.RespondSuccess(w, r, data)
	}
}
