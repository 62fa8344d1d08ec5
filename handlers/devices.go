// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/danielhkuo/cleanplate/auth"
	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/middleware"
	"github.com/danielhkuo/cleanplate/models"
)

type DeviceHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewDeviceHandler(db *sql.DB, cfg cliparse.Config) *DeviceHandler {
	return &DeviceHandler{db: db, cfg: cfg}
}

// Register handles POST /devices/register
// Registers a device and returns its device_id (or finds existing)
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	deviceUUID := r.Header.Get(deviceUUIDHeader)
	if deviceUUID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, deviceUUIDHeader+" header required")
		return
	}

	var req models.RegisterDeviceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := validation.Validate(req.Platform, validation.Required, validation.In(
		models.PlatformIOS, models.PlatformMacOS, models.PlatformAndroid, models.PlatformWeb,
	)); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "platform must be one of: ios, macos, android, web")
		return
	}

	var existingID string
	err := h.db.QueryRow(`
		SELECT id FROM device WHERE device_uuid = $1
	`, deviceUUID).Scan(&existingID)

	if err == nil {
		_, err = h.db.Exec(`
			UPDATE device SET platform = $1, last_seen_at = $2 WHERE id = $3
		`, req.Platform, time.Now(), existingID)
		if err != nil {
			zap.S().Errorw("failed to update device", "error", err)
		}

		zap.S().Infow("device registered (existing)", "device_id", existingID)
		middleware.JSONResponse(w, http.StatusOK, models.RegisterDeviceResponse{
			DeviceID: existingID,
			IsNew:    false,
		})
		return
	}

	if err != sql.ErrNoRows {
		zap.S().Errorw("failed to query device", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	deviceID, err := auth.GenerateID(16)
	if err != nil {
		zap.S().Errorw("failed to generate device ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	now := time.Now()
	_, err = h.db.Exec(`
		INSERT INTO device (id, device_uuid, platform, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5)
	`, deviceID, deviceUUID, req.Platform, now, now)
	if err != nil {
		zap.S().Errorw("failed to insert device", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	zap.S().Infow("device registered (new)", "device_id", deviceID, "platform", req.Platform)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterDeviceResponse{
		DeviceID: deviceID,
		IsNew:    true,
	})
}

// GetMe handles GET /devices/me
func (h *DeviceHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	deviceUUID := r.Header.Get(deviceUUIDHeader)
	if deviceUUID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, deviceUUIDHeader+" header required")
		return
	}

	var device models.DeviceInfo
	err := h.db.QueryRow(`
		SELECT id, platform, created_at, last_seen_at
		FROM device
		WHERE device_uuid = $1
	`, deviceUUID).Scan(&device.ID, &device.Platform, &device.CreatedAt, &device.LastSeenAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Device not registered")
		return
	}
	if err != nil {
		zap.S().Errorw("failed to query device", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.touch(device.ID)
	middleware.JSONResponse(w, http.StatusOK, device)
}

// GetMyRooms handles GET /devices/my-rooms
// Returns rooms this device created or joined, newest link first.
func (h *DeviceHandler) GetMyRooms(w http.ResponseWriter, r *http.Request) {
	deviceUUID := r.Header.Get(deviceUUIDHeader)
	if deviceUUID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, deviceUUIDHeader+" header required")
		return
	}

	var deviceID string
	err := h.db.QueryRow(`
		SELECT id FROM device WHERE device_uuid = $1
	`, deviceUUID).Scan(&deviceID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Device not registered")
		return
	}
	if err != nil {
		zap.S().Errorw("failed to query device", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.touch(deviceID)

	rows, err := h.db.Query(`
		SELECT
			r.id,
			r.name,
			r.invite_code,
			r.is_active,
			r.scores_revealed,
			dr.role,
			dr.participant_id,
			p.name,
			dr.linked_at
		FROM device_room dr
		JOIN room r ON dr.room_id = r.id
		LEFT JOIN participant p ON p.id = dr.participant_id
		WHERE dr.device_id = $1
		ORDER BY dr.linked_at DESC
	`, deviceID)
	if err != nil {
		zap.S().Errorw("failed to query device rooms", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	rooms := []models.DeviceRoomSummary{}
	for rows.Next() {
		var summary models.DeviceRoomSummary
		var participantID, participantName sql.NullString

		if err := rows.Scan(
			&summary.RoomID,
			&summary.Name,
			&summary.InviteCode,
			&summary.IsActive,
			&summary.ScoresRevealed,
			&summary.Role,
			&participantID,
			&participantName,
			&summary.LinkedAt,
		); err != nil {
			zap.S().Errorw("failed to scan room", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if participantID.Valid {
			summary.ParticipantID = &participantID.String
		}
		if participantName.Valid {
			summary.ParticipantName = &participantName.String
		}
		rooms = append(rooms, summary)
	}
	if err := rows.Err(); err != nil {
		zap.S().Errorw("failed to iterate device rooms", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.GetMyRoomsResponse{Rooms: rooms})
}

func (h *DeviceHandler) touch(deviceID string) {
	if _, err := h.db.Exec(`
		UPDATE device SET last_seen_at = $1 WHERE id = $2
	`, time.Now(), deviceID); err != nil {
		zap.S().Errorw("failed to update device last_seen_at", "error", err)
	}
}

// GetOrCreateDevice looks up or creates a device record from the X-Device-UUID header.
// Returns an empty ID when the header is absent.
func GetOrCreateDevice(db *sql.DB, r *http.Request) (string, error) {
	deviceUUID := r.Header.Get(deviceUUIDHeader)
	if deviceUUID == "" {
		return "", nil
	}

	var deviceID string
	err := db.QueryRow(`
		SELECT id FROM device WHERE device_uuid = $1
	`, deviceUUID).Scan(&deviceID)

	if err == nil {
		_, _ = db.Exec(`UPDATE device SET last_seen_at = $1 WHERE id = $2`, time.Now(), deviceID)
		return deviceID, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	// Platform defaults to web until /devices/register says otherwise
	deviceID, err = auth.GenerateID(16)
	if err != nil {
		return "", err
	}

	now := time.Now()
	_, err = db.Exec(`
		INSERT INTO device (id, device_uuid, platform, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5)
	`, deviceID, deviceUUID, models.PlatformWeb, now, now)
	if err != nil {
		return "", err
	}

	return deviceID, nil
}

// LinkDeviceToRoom associates a device with a room. A moderator link is
// never downgraded and the first participant id sticks.
func LinkDeviceToRoom(db *sql.DB, deviceID, roomID, role string, participantID *string) error {
	if deviceID == "" {
		return nil
	}

	var pid sql.NullString
	if participantID != nil {
		pid = sql.NullString{String: *participantID, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO device_room (device_id, room_id, participant_id, role, linked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id, room_id) DO UPDATE SET
			role = CASE WHEN device_room.role = 'moderator' THEN 'moderator' ELSE EXCLUDED.role END,
			participant_id = COALESCE(device_room.participant_id, EXCLUDED.participant_id)
	`, deviceID, roomID, pid, role, time.Now())

	return err
}
