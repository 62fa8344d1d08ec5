// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open picks the driver from the configured database type:

	conn, err := db.Open("sqlite", "file:cleanplate.db")
	conn, err := db.Open("postgres", "postgres://...")

SQLite connections are limited to a single open connection so writes are
serialized and in-memory databases are shared.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - room: room metadata, moderator settings, and the reveal snapshot
    (ai_analyzing, scores_revealed, scores_revealed_at, ai_results)
  - participant: players, unique by name within a room
  - item: the room's food item list
  - photo: INITIAL and FINAL photos, unique per participant and type
  - score: manual tallies, unique per participant and item
  - device: registered client devices
  - device_room: links devices to rooms they created or joined

# Relationships

	room 1──* participant
	room 1──* item
	participant 1──* photo
	participant 1──* score
	device *──* room (via device_room)
*/
package db
