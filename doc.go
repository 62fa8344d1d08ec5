// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the cleanplate API server.

Cleanplate runs a clean-plate eating game: players photograph their plate
before and after a meal, a vision model scores what was on it and how clean
it ended up, and the moderator reveals a scoreboard that also counts the
tiers players reported by hand.

# Starting the Server

	MODERATOR_KEY_SALT=... OPENAI_API_KEY=... DATABASE_URL=cleanplate.db go run .

Or with flags, using the offline stub classifier and PostgreSQL:

	go run . -p 3318 -t postgres -d "postgres://..." --llm-provider stub

A .env file in the working directory is loaded before flags are parsed.

# Architecture

  - handlers: HTTP request handlers (rooms, participants, photos, scores, reveal, devices)
  - router: Route definitions using Go 1.22+ routing
  - reveal: the reveal cycle and its progress log
  - classifier: vision model clients, pacing and response parsing
  - retry: bounded fixed-delay retries
  - scoring: tier points, totals and winners
  - store: the per-room reveal snapshot
  - live: websocket push of reveal status
  - middleware, models, auth, db, cliparse, logger, metrics: supporting pieces

On startup the server clears analyzing flags left by a previous run. On
SIGINT or SIGTERM it stops accepting requests and cancels running reveals,
which release their rooms before the process exits.
*/
package main
