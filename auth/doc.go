// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides moderator keys, invite codes, and ID generation.

# Moderator Keys

Moderator keys use HMAC-SHA256 to create deterministic, verifiable keys:

	key := auth.GenerateModeratorKey(roomID, salt)
	err := auth.ValidateModeratorKey(roomID, key, salt)

The key is URL-safe base64 encoded without padding. The same room ID and salt
always produce the same key, so nothing is stored in the database. Moderator
operations (settings, reveal, cleanup) send it in the X-Moderator-Key header.

# Invite Codes

Invite codes are 8 random characters from an alphabet without look-alike
glyphs:

	code, err := auth.GenerateInviteCode()

Codes typed by players are normalized with NormalizeInviteCode before lookup.

# ID Generation

Rooms get UUIDs; child rows get random hex IDs:

	roomID := auth.NewRoomID()
	id, err := auth.GenerateID(12) // 24 hex characters
*/
package auth
