// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scoring turns tiers into points and points into a scoreboard.

A participant's total is

	manual + auto + cleanliness

where each tier is worth SIMPLE=1, DOUBLE=2, TRIPLE=3 and DIRTY=0. A missing
cleanliness score (no FINAL photo, or a failed analysis) is also 0.

Every function here is pure; callers load data and persist results.
*/
package scoring
