// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the cleanplate API.

NewRouter builds an http.ServeMux over the handlers package. The reveal
orchestrator and the live hub are shared with main so background cycles and
websocket subscribers outlive single requests:

	mux := router.NewRouter(db, cfg, orchestrator, hub)

# Endpoints

	GET    /health
	GET    /metrics

	POST   /rooms
	GET    /rooms/{id}
	PUT    /rooms/{id}/settings                  moderator
	POST   /rooms/cleanup                        moderator
	GET    /invites/{code}
	GET    /invites/{code}/validate

	POST   /rooms/{id}/participants
	POST   /rooms/{id}/participants/{pid}/photos
	DELETE /rooms/{id}/participants/{pid}/photos?type=INITIAL|FINAL
	POST   /rooms/{id}/scores

	POST   /rooms/{id}/reveal                    moderator
	GET    /rooms/{id}/reveal
	GET    /rooms/{id}/ai-status
	GET    /rooms/{id}/live                      websocket

	POST   /devices/register
	GET    /devices/me
	GET    /devices/my-rooms

Moderator routes require the X-Moderator-Key header. The live route is not
wrapped in request logging since the connection lives until the client leaves.
*/
package router
