// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the cleanplate API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - RoomHandler: room creation, lookup by id or invite code, settings, cleanup
  - ParticipantHandler: joining a room by name
  - PhotoHandler: INITIAL and FINAL plate photos
  - ScoreHandler: manual tier scores per item
  - RevealHandler: reveal trigger, status polling and the live socket
  - DeviceHandler: device registration and room history

	roomHandler := handlers.NewRoomHandler(db, cfg)
	revealHandler := handlers.NewRevealHandler(db, cfg, orchestrator, hub)

# Room Lifecycle

	POST /rooms                                → CreateRoom (returns moderator_key)
	POST /rooms/{id}/participants              → Join
	POST /rooms/{id}/participants/{pid}/photos → Upload (multipart or JSON)
	POST /rooms/{id}/scores                    → Submit
	POST /rooms/{id}/reveal                    → Trigger (202, runs in background)
	GET  /rooms/{id}/reveal                    → Status (poll every poll_interval_seconds)

Editing endpoints answer 409 while the room is being analyzed and 400 once
the room is inactive. Moderator operations require the X-Moderator-Key header.

# Duplicate Photos

A second photo of the same type either replaces the first (200, replaced=true)
or is rejected with 409, depending on the configured photo policy.

# Device Tracking

Any request carrying X-Device-UUID that creates or joins a room links the
device to it, so GET /devices/my-rooms can list the player's rooms.
*/
package handlers
