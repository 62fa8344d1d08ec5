// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidModeratorKey = errors.New("invalid moderator key")
)

// inviteAlphabet omits 0/O and 1/I so codes survive being read aloud
const inviteAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// InviteCodeLength is the number of characters in an invite code
const InviteCodeLength = 8

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewRoomID creates a room ID. Rooms use UUIDs since they appear in shared URLs.
func NewRoomID() string {
	return uuid.NewString()
}

// GenerateModeratorKey creates an HMAC-based moderator key for a room
// This is deterministic and verifiable
func GenerateModeratorKey(roomID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(roomID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateModeratorKey checks if the provided moderator key is valid for the room
func ValidateModeratorKey(roomID, moderatorKey, salt string) error {
	expected := GenerateModeratorKey(roomID, salt)
	if !hmac.Equal([]byte(moderatorKey), []byte(expected)) {
		return ErrInvalidModeratorKey
	}
	return nil
}

// GenerateInviteCode creates a random uppercase invite code
func GenerateInviteCode() (string, error) {
	b := make([]byte, InviteCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}

	// 256 is a multiple of 32, so the modulo is unbiased
	for i := range b {
		b[i] = inviteAlphabet[int(b[i])%len(inviteAlphabet)]
	}
	return string(b), nil
}

// NormalizeInviteCode uppercases and trims a user-typed invite code
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
