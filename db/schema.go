// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL sticks to types and defaults that SQLite and PostgreSQL share.
func CreateSchema(db *sql.DB) error {
	// Executed one statement at a time; not every driver accepts a batch
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// DropSchema removes every table, children first.
func DropSchema(db *sql.DB) error {
	for _, table := range []string{"device_room", "device", "score", "photo", "item", "participant", "room"} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}

const schema = `
-- Rooms (one row is the whole reveal snapshot)
CREATE TABLE IF NOT EXISTS room (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    moderator_name TEXT NOT NULL,
    invite_code TEXT NOT NULL UNIQUE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    cheat_name TEXT NOT NULL DEFAULT '',
    poll_interval_seconds INTEGER NOT NULL DEFAULT 3,
    ai_analyzing BOOLEAN NOT NULL DEFAULT FALSE,
    ai_analysis_started_at TIMESTAMP,
    scores_revealed BOOLEAN NOT NULL DEFAULT FALSE,
    scores_revealed_at TIMESTAMP,
    ai_results TEXT,
    last_reveal_error TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_room_invite_code ON room(invite_code);

-- Participants
CREATE TABLE IF NOT EXISTS participant (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL REFERENCES room(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (room_id, name)
);

CREATE INDEX IF NOT EXISTS idx_participant_room_id ON participant(room_id);

-- Items
CREATE TABLE IF NOT EXISTS item (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL REFERENCES room(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_item_room_id ON item(room_id);

-- Photos (at most one per participant and type)
CREATE TABLE IF NOT EXISTS photo (
    id TEXT PRIMARY KEY,
    participant_id TEXT NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
    type TEXT NOT NULL CHECK (type IN ('INITIAL', 'FINAL')),
    url TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (participant_id, type)
);

-- Manual scores (one per participant and item)
CREATE TABLE IF NOT EXISTS score (
    id TEXT PRIMARY KEY,
    participant_id TEXT NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
    item_id TEXT NOT NULL REFERENCES item(id) ON DELETE CASCADE,
    value TEXT NOT NULL CHECK (value IN ('SIMPLE', 'DOUBLE', 'TRIPLE')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (participant_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_score_participant_id ON score(participant_id);

-- Devices
CREATE TABLE IF NOT EXISTS device (
    id TEXT PRIMARY KEY,
    device_uuid TEXT NOT NULL UNIQUE,
    platform TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_seen_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_device_uuid ON device(device_uuid);

-- Device to room links
CREATE TABLE IF NOT EXISTS device_room (
    device_id TEXT NOT NULL REFERENCES device(id) ON DELETE CASCADE,
    room_id TEXT NOT NULL REFERENCES room(id) ON DELETE CASCADE,
    participant_id TEXT,
    role TEXT NOT NULL DEFAULT 'participant',
    linked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (device_id, room_id)
);

CREATE INDEX IF NOT EXISTS idx_device_room_device ON device_room(device_id)
`
