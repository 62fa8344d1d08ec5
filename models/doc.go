// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateRoomRequest: name, moderator_name
  - JoinRoomRequest: name
  - UploadPhotoRequest: type, url (JSON alternative to multipart)
  - SubmitScoresRequest: participant_id, scores ([]ManualScore)
  - UpdateSettingsRequest: cheat_name, poll_interval_seconds
  - CleanupRequest: current_room_id
  - RegisterDeviceRequest: platform

# Response Types

  - CreateRoomResponse: room_id, invite_code, moderator_key, participant_id
  - RevealStatusResponse: the shared snapshot every client polls
  - AIStatusResponse: analyzing flag, attempt counters, rolling log
  - ErrorResponse: error, message

# Domain Types

  - Room, Participant, Photo, Item, Score: persisted rows
  - RoomDetails, ParticipantDetails: a room loaded with its children
  - ScoreEntry, AnalysisResult, AIResults: classifier output per participant
  - ParticipantTotal: one scoreboard line

# Tiers

	TierSimple = "SIMPLE" // 1 point
	TierDouble = "DOUBLE" // 2 points
	TierTriple = "TRIPLE" // 3 points
	TierDirty  = "DIRTY"  // 0 points, cleanliness only

Photo types are PhotoInitial ("INITIAL", before eating) and PhotoFinal
("FINAL", the plate afterwards).
*/
package models
