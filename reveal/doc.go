// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package reveal runs the reveal cycle: the one operation that turns a room's
photos into published scores.

A cycle moves a room from idle to analyzing to revealed:

 1. Preconditions. The room must be active and every participant must have
    both an INITIAL and a FINAL photo, otherwise ErrPhotosMissing.
 2. Acquire. An in-process per-room lock and a conditional update of the
    room's analyzing flag make sure only one cycle runs per room. A losing
    trigger gets ErrRevealInProgress.
 3. Analyze. Participants are classified in join order, INITIAL photo first,
    each call wrapped in the retry policy. A call that still fails after the
    last attempt leaves that half of the result marked "failed" and the cycle
    carries on.
 4. Cheat. If the room has a cheat name, matching participants get the best
    cleanliness tier.
 5. Persist. New results are merged over the previous ones by participant
    id and written in one update together with the revealed flag.
 6. Release. The analyzing flag is cleared on every exit path, including a
    failed persist or a panic.

Progress keeps a per-room rolling log of attempts so the moderator can see
what a long cycle is doing. Subscribers registered as a Notifier receive the
status document when a cycle starts and when it ends.
*/
package reveal
