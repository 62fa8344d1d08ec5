// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/danielhkuo/cleanplate/auth"
	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/middleware"
	"github.com/danielhkuo/cleanplate/models"
)

// multipartOverhead is headroom for form fields and boundaries.
const multipartOverhead = 64 << 10

var errPhotoTooLarge = errors.New("photo too large")

type PhotoHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPhotoHandler(db *sql.DB, cfg cliparse.Config) *PhotoHandler {
	return &PhotoHandler{db: db, cfg: cfg}
}

func validatePhoto(req *models.UploadPhotoRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Type, validation.Required, validation.In(models.PhotoInitial, models.PhotoFinal)),
		validation.Field(&req.URL, validation.Required, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			for _, prefix := range []string{"https://", "http://", "data:image/"} {
				if strings.HasPrefix(s, prefix) {
					return nil
				}
			}
			return errors.New("must be an http(s) URL or an image data URL")
		})),
	)
}

// Upload handles POST /rooms/{id}/participants/{pid}/photos
// Accepts a multipart form (fields "type" and "photo") or a JSON body with a URL.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	participantID := r.PathValue("pid")

	req, err := h.readUpload(w, r)
	if errors.Is(err, errPhotoTooLarge) {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("photo must be at most %s", humanize.Bytes(uint64(h.cfg.MaxPhotoBytes))))
		return
	}
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	if err := validatePhoto(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if !checkEditable(w, h.db, roomID) {
		return
	}
	if ok, err := participantInRoom(h.db, roomID, participantID); err != nil {
		zap.S().Errorw("failed to query participant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	} else if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Participant not found")
		return
	}

	var existingID string
	err = h.db.QueryRow(`
		SELECT id FROM photo WHERE participant_id = $1 AND type = $2
	`, participantID, req.Type).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		zap.S().Errorw("failed to query photo", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	replaced := err == nil

	if replaced && h.cfg.PhotoPolicy == models.PhotoPolicyReject {
		middleware.ErrorResponse(w, http.StatusConflict,
			fmt.Sprintf("%s photo already uploaded; delete it first", strings.ToLower(req.Type)))
		return
	}

	photoID := existingID
	if !replaced {
		photoID, err = auth.GenerateID(12)
		if err != nil {
			zap.S().Errorw("failed to generate photo ID", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save photo")
			return
		}
	}

	_, err = h.db.Exec(`
		INSERT INTO photo (id, participant_id, type, url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (participant_id, type) DO UPDATE SET
			url = EXCLUDED.url,
			created_at = EXCLUDED.created_at
	`, photoID, participantID, req.Type, req.URL, time.Now())
	if err != nil {
		zap.S().Errorw("failed to save photo", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save photo")
		return
	}

	zap.S().Infow("photo saved",
		"room_id", roomID,
		"participant_id", participantID,
		"type", req.Type,
		"replaced", replaced,
		"size", humanize.Bytes(uint64(len(req.URL))),
	)

	status := http.StatusCreated
	message := "Photo uploaded"
	if replaced {
		status = http.StatusOK
		message = "Photo replaced"
	}
	middleware.JSONResponse(w, status, models.UploadPhotoResponse{
		PhotoID:  photoID,
		Type:     req.Type,
		Replaced: replaced,
		Message:  message,
	})
}

// readUpload turns either request shape into an UploadPhotoRequest.
// Multipart files become base64 data URLs.
func (h *PhotoHandler) readUpload(w http.ResponseWriter, r *http.Request) (models.UploadPhotoRequest, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req models.UploadPhotoRequest
		r.Body = http.MaxBytesReader(w, r.Body, int64(base64.StdEncoding.EncodedLen(int(h.cfg.MaxPhotoBytes)))+multipartOverhead)
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return req, errPhotoTooLarge
			}
			return req, errors.New("Invalid JSON")
		}
		if dataURLSize(req.URL) > h.cfg.MaxPhotoBytes {
			return req, errPhotoTooLarge
		}
		return req, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxPhotoBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.cfg.MaxPhotoBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return models.UploadPhotoRequest{}, errPhotoTooLarge
		}
		return models.UploadPhotoRequest{}, errors.New("Invalid multipart form")
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		return models.UploadPhotoRequest{}, errors.New("photo file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxPhotoBytes+1))
	if err != nil {
		return models.UploadPhotoRequest{}, errors.New("failed to read photo")
	}
	if int64(len(data)) > h.cfg.MaxPhotoBytes {
		return models.UploadPhotoRequest{}, errPhotoTooLarge
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return models.UploadPhotoRequest{}, errors.New("photo must be an image")
	}

	return models.UploadPhotoRequest{
		Type: r.FormValue("type"),
		URL:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// dataURLSize is the decoded payload size of a data URL, or 0 for any other URL.
func dataURLSize(url string) int64 {
	if !strings.HasPrefix(url, "data:") {
		return 0
	}
	header, payload, ok := strings.Cut(url, ",")
	if !ok {
		return 0
	}
	if !strings.HasSuffix(header, ";base64") {
		return int64(len(payload))
	}
	payload = strings.TrimRight(payload, "=")
	return int64(base64.RawStdEncoding.DecodedLen(len(payload)))
}

// Delete handles DELETE /rooms/{id}/participants/{pid}/photos?type=INITIAL
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	participantID := r.PathValue("pid")
	photoType := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("type")))

	if err := validation.Validate(photoType, validation.Required, validation.In(models.PhotoInitial, models.PhotoFinal)); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "type: "+err.Error())
		return
	}

	if !checkEditable(w, h.db, roomID) {
		return
	}
	if ok, err := participantInRoom(h.db, roomID, participantID); err != nil {
		zap.S().Errorw("failed to query participant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	} else if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Participant not found")
		return
	}

	res, err := h.db.Exec(`
		DELETE FROM photo WHERE participant_id = $1 AND type = $2
	`, participantID, photoType)
	if err != nil {
		zap.S().Errorw("failed to delete photo", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete photo")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Photo not found")
		return
	}

	zap.S().Infow("photo deleted", "room_id", roomID, "participant_id", participantID, "type", photoType)

	middleware.JSONResponse(w, http.StatusOK, models.DeletePhotoResponse{
		Type:    photoType,
		Message: "Photo deleted",
	})
}
