// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

ParseFlags returns a validated Config:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Flags are declared with pflag and bound into viper, so every flag has an
environment twin with dashes turned into underscores:

	--database-url       DATABASE_URL
	--moderator-key-salt MODERATOR_KEY_SALT
	--openai-api-key     OPENAI_API_KEY
	--photo-policy       PHOTO_POLICY

CLI flags take precedence over environment variables.

# Settings

Server: port (-p, 3318), database-url (-d, required), database-type
(-t, sqlite or postgres), moderator-key-salt (required), environment.

Classifier: llm-provider (openai or stub), openai-api-key (required for
openai), openai-model, openai-base-url, max-tokens.

Reveal cycle: retry-attempts, retry-delay, call-pause, reveal-workers,
max-inflight-calls.

Rooms: photo-policy (replace or reject), max-photo-bytes, poll-interval,
items (comma separated; defaults to the built-in menu).
*/
package cliparse
