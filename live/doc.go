// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package live pushes room status documents to websocket subscribers as an
// optional upgrade over polling. The pushed document is the same one the
// status endpoint returns.
package live
