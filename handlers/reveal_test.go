// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/cleanplate/classifier"
	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/live"
	"github.com/danielhkuo/cleanplate/models"
	"github.com/danielhkuo/cleanplate/reveal"
	"github.com/danielhkuo/cleanplate/store"
	"github.com/danielhkuo/cleanplate/testutil"
)

// gateClassifier holds every call until release is closed, then answers
// with the stub's deterministic results.
type gateClassifier struct {
	release chan struct{}
	stub    *classifier.StubClient
}

func (g *gateClassifier) SourceName() string { return "gate" }

func (g *gateClassifier) Classify(ctx context.Context, imageRef string, mode classifier.Mode) (classifier.Result, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return classifier.Result{}, &classifier.ClassificationError{Kind: classifier.KindTransport, Mode: mode, Err: ctx.Err()}
	}
	return g.stub.Classify(ctx, imageRef, mode)
}

type revealFixture struct {
	db           *sql.DB
	cfg          cliparse.Config
	handler      *RevealHandler
	orchestrator *reveal.Orchestrator
	roomID       string
	moderatorKey string
}

func newRevealFixture(t *testing.T, cls classifier.Classifier) *revealFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	ctx, cancel := context.WithCancel(context.Background())
	hub := live.NewHub()
	go hub.Run(ctx)
	t.Cleanup(cancel)

	o := reveal.NewOrchestrator(store.New(db), cls, cfg, hub)
	t.Cleanup(o.Close)

	roomID, key, _ := testutil.CreateTestRoom(t, db, cfg)
	return &revealFixture{
		db:           db,
		cfg:          cfg,
		handler:      NewRevealHandler(db, cfg, o, hub),
		orchestrator: o,
		roomID:       roomID,
		moderatorKey: key,
	}
}

func (f *revealFixture) addPlayer(t *testing.T, name string) string {
	t.Helper()
	id := testutil.AddTestParticipant(t, f.db, f.roomID, name)
	testutil.AddTestPhoto(t, f.db, id, models.PhotoInitial, "https://example.com/"+name+"-initial.jpg")
	testutil.AddTestPhoto(t, f.db, id, models.PhotoFinal, "https://example.com/"+name+"-final.jpg")
	return id
}

func (f *revealFixture) trigger(key string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/rooms/"+f.roomID+"/reveal", nil,
		map[string]string{"X-Moderator-Key": key})
	return serve(f.handler.Trigger, req, map[string]string{"id": f.roomID})
}

func TestTriggerReveal(t *testing.T) {
	f := newRevealFixture(t, classifier.NewStubClient())
	f.addPlayer(t, "Ana")
	f.addPlayer(t, "Bia")

	testutil.AssertStatus(t, f.trigger("wrong"), http.StatusUnauthorized)

	w := f.trigger(f.moderatorKey)
	testutil.AssertStatus(t, w, http.StatusAccepted)

	var started models.RevealStartedResponse
	testutil.AssertJSON(t, w, &started)
	if started.Status != "started" || started.RoomID != f.roomID {
		t.Errorf("Unexpected response %+v", started)
	}

	f.orchestrator.Wait()

	w = serve(f.handler.Status, httptest.NewRequest("GET", "/reveal", nil), map[string]string{"id": f.roomID})
	testutil.AssertStatus(t, w, http.StatusOK)

	var status models.RevealStatusResponse
	testutil.AssertJSON(t, w, &status)
	if !status.ScoresRevealed || status.AIAnalyzing {
		t.Fatalf("Expected revealed and idle, got %+v", status)
	}
	if len(status.AIResults) != 2 || len(status.Scoreboard) != 2 {
		t.Errorf("Expected results for both participants, got %d results and %d totals", len(status.AIResults), len(status.Scoreboard))
	}
	if len(status.Winners) == 0 {
		t.Error("Expected at least one winner")
	}
	if status.PollIntervalSeconds != models.DefaultPollIntervalSeconds {
		t.Errorf("Expected poll interval %d, got %d", models.DefaultPollIntervalSeconds, status.PollIntervalSeconds)
	}
}

func TestTriggerReveal_Errors(t *testing.T) {
	f := newRevealFixture(t, classifier.NewStubClient())

	t.Run("no participants", func(t *testing.T) {
		testutil.AssertStatus(t, f.trigger(f.moderatorKey), http.StatusConflict)
	})

	t.Run("missing final photo", func(t *testing.T) {
		id := testutil.AddTestParticipant(t, f.db, f.roomID, "Caio")
		testutil.AddTestPhoto(t, f.db, id, models.PhotoInitial, "https://example.com/c.jpg")

		w := f.trigger(f.moderatorKey)
		testutil.AssertStatus(t, w, http.StatusConflict)
		if !strings.Contains(w.Body.String(), "Caio") {
			t.Errorf("Expected the participant named in the error, got %s", w.Body.String())
		}
	})

	t.Run("inactive room", func(t *testing.T) {
		f.db.Exec("UPDATE room SET is_active = FALSE WHERE id = $1", f.roomID)
		defer f.db.Exec("UPDATE room SET is_active = TRUE WHERE id = $1", f.roomID)
		testutil.AssertStatus(t, f.trigger(f.moderatorKey), http.StatusBadRequest)
	})
}

func TestTriggerReveal_SecondTriggerConflicts(t *testing.T) {
	gate := &gateClassifier{release: make(chan struct{}), stub: classifier.NewStubClient()}
	f := newRevealFixture(t, gate)
	f.addPlayer(t, "Ana")

	testutil.AssertStatus(t, f.trigger(f.moderatorKey), http.StatusAccepted)
	testutil.AssertStatus(t, f.trigger(f.moderatorKey), http.StatusConflict)

	w := serve(f.handler.AIStatus, httptest.NewRequest("GET", "/ai-status", nil), map[string]string{"id": f.roomID})
	testutil.AssertStatus(t, w, http.StatusOK)
	var ai models.AIStatusResponse
	testutil.AssertJSON(t, w, &ai)
	if !ai.AIAnalyzing || ai.AIAnalysisStartedAt == nil {
		t.Errorf("Expected the room to be analyzing, got %+v", ai)
	}

	close(gate.release)
	f.orchestrator.Wait()

	var analyzing bool
	f.db.QueryRow("SELECT ai_analyzing FROM room WHERE id = $1", f.roomID).Scan(&analyzing)
	if analyzing {
		t.Error("Expected the analyzing flag to be released")
	}
}

func TestRevealStatus_UnknownRoom(t *testing.T) {
	f := newRevealFixture(t, classifier.NewStubClient())

	for name, h := range map[string]http.HandlerFunc{
		"status":    f.handler.Status,
		"ai-status": f.handler.AIStatus,
	} {
		t.Run(name, func(t *testing.T) {
			w := serve(h, httptest.NewRequest("GET", "/", nil), map[string]string{"id": "missing"})
			testutil.AssertStatus(t, w, http.StatusNotFound)
		})
	}
}

func TestRevealStatus_BeforeReveal(t *testing.T) {
	f := newRevealFixture(t, classifier.NewStubClient())
	f.addPlayer(t, "Ana")

	w := serve(f.handler.Status, httptest.NewRequest("GET", "/", nil), map[string]string{"id": f.roomID})
	testutil.AssertStatus(t, w, http.StatusOK)

	// Empty collections, not null
	for _, field := range []string{`"ai_results":{}`, `"scoreboard":[]`, `"winners":[]`} {
		if !strings.Contains(w.Body.String(), field) {
			t.Errorf("Expected %s in %s", field, w.Body.String())
		}
	}
}

func TestLive_PushesRevealedStatus(t *testing.T) {
	f := newRevealFixture(t, classifier.NewStubClient())
	f.addPlayer(t, "Ana")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rooms/{id}/live", f.handler.Live)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/rooms/" + f.roomID + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var initial models.RevealStatusResponse
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("Failed to read initial status: %v", err)
	}
	if initial.ScoresRevealed {
		t.Fatal("Expected an unrevealed initial status")
	}

	if err := f.orchestrator.Reveal(context.Background(), f.roomID); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}

	for {
		var status models.RevealStatusResponse
		if err := conn.ReadJSON(&status); err != nil {
			t.Fatalf("Never saw the revealed status: %v", err)
		}
		if status.ScoresRevealed {
			if len(status.Winners) != 1 {
				t.Errorf("Expected a single winner, got %v", status.Winners)
			}
			return
		}
	}
}

func TestLive_UnknownRoom(t *testing.T) {
	f := newRevealFixture(t, classifier.NewStubClient())

	w := serve(f.handler.Live, httptest.NewRequest("GET", "/live", nil), map[string]string{"id": "missing"})
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
