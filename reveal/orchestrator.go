// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reveal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/danielhkuo/cleanplate/classifier"
	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/metrics"
	"github.com/danielhkuo/cleanplate/models"
	"github.com/danielhkuo/cleanplate/retry"
	"github.com/danielhkuo/cleanplate/store"
)

var (
	ErrPhotosMissing    = errors.New("every participant needs an initial and a final photo")
	ErrRevealInProgress = errors.New("scores are already being revealed")
	ErrRoomInactive     = errors.New("room is not active")
)

// releaseTimeout bounds the writes that clear the analyzing flag.
const releaseTimeout = 10 * time.Second

// Notifier receives the room's status document whenever a cycle starts or ends.
type Notifier interface {
	Publish(roomID string, status any)
}

// Orchestrator runs reveal cycles. At most one cycle runs per room.
type Orchestrator struct {
	store      store.SnapshotStore
	classifier classifier.Classifier
	policy     retry.Policy
	workers    int
	notifier   Notifier
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	running  map[string]bool
	progress map[string]*Progress
}

func NewOrchestrator(s store.SnapshotStore, c classifier.Classifier, cfg cliparse.Config, n Notifier) *Orchestrator {
	workers := cfg.RevealWorkers
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:      s,
		classifier: c,
		policy:     retry.Policy{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
		workers:    workers,
		notifier:   n,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		running:    make(map[string]bool),
		progress:   make(map[string]*Progress),
	}
}

type cycle struct {
	room      models.RoomDetails
	startedAt time.Time
	progress  *Progress
}

// Start checks the preconditions, marks the room as analyzing and runs the
// cycle in the background. Completion is observed through Status.
func (o *Orchestrator) Start(ctx context.Context, roomID string) error {
	c, err := o.begin(ctx, roomID)
	if err != nil {
		return err
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.run(o.ctx, c); err != nil {
			zap.S().Errorw("reveal failed", "room_id", roomID, "error", err)
		}
	}()
	return nil
}

// Reveal runs a whole cycle and returns once the snapshot is persisted.
// Only a failure to read or persist the snapshot is returned; classifier
// failures are recorded per participant.
func (o *Orchestrator) Reveal(ctx context.Context, roomID string) error {
	c, err := o.begin(ctx, roomID)
	if err != nil {
		return err
	}
	return o.run(ctx, c)
}

// Wait blocks until background cycles have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close cancels background cycles and waits for them to release their rooms.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

func (o *Orchestrator) begin(ctx context.Context, roomID string) (*cycle, error) {
	details, err := o.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !details.Room.IsActive {
		return nil, ErrRoomInactive
	}
	if err := checkPhotos(details.Participants); err != nil {
		return nil, err
	}

	if !o.lock(roomID) {
		return nil, ErrRevealInProgress
	}

	startedAt := o.now()
	if err := o.store.AcquireAnalyzing(ctx, roomID, startedAt); err != nil {
		o.unlock(roomID)
		if errors.Is(err, store.ErrAlreadyAnalyzing) {
			return nil, ErrRevealInProgress
		}
		return nil, err
	}
	metrics.RoomsAnalyzing.Inc()

	p := newProgress(o.now)
	o.mu.Lock()
	o.progress[roomID] = p
	o.mu.Unlock()

	p.Logf("analysis started for %d participants", len(details.Participants))
	zap.S().Infow("reveal started",
		"room_id", roomID,
		"participants", len(details.Participants),
		"classifier", o.classifier.SourceName(),
	)
	o.publish(ctx, roomID)

	return &cycle{room: details, startedAt: startedAt, progress: p}, nil
}

func checkPhotos(participants []models.ParticipantDetails) error {
	if len(participants) == 0 {
		return fmt.Errorf("%w: room has no participants", ErrPhotosMissing)
	}
	for _, p := range participants {
		for _, t := range []string{models.PhotoInitial, models.PhotoFinal} {
			if p.PhotoOf(t) == nil {
				return fmt.Errorf("%w: %s has no %s photo", ErrPhotosMissing, p.Name, strings.ToLower(t))
			}
		}
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, c *cycle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reveal panicked: %v", r)
		}
		o.finish(ctx, c, err)
	}()

	roomID := c.room.Room.ID
	results, err := o.analyze(ctx, c)
	if err != nil {
		return err
	}
	applyCheat(c.room.Room.CheatName, c.room.Participants, results)

	prev, err := o.store.GetRoomStatus(ctx, roomID)
	if err != nil {
		return fmt.Errorf("read previous results: %w", err)
	}
	merged := mergeResults(prev.AIResults, results)

	if err := o.store.SetRevealed(ctx, roomID, o.now(), merged); err != nil {
		return fmt.Errorf("persist reveal: %w", err)
	}
	return nil
}

// finish always clears the analyzing flag, even when ctx is already done.
func (o *Orchestrator) finish(ctx context.Context, c *cycle, runErr error) {
	roomID := c.room.Room.ID
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	result := "success"
	if runErr != nil {
		result = "error"
		c.progress.Logf("reveal failed: %v", runErr)
		if err := o.store.RecordRevealError(releaseCtx, roomID, runErr.Error()); err != nil {
			zap.S().Errorw("failed to record reveal error", "room_id", roomID, "error", err)
		}
	} else {
		c.progress.Logf("scores revealed")
	}

	if err := o.store.SetAIAnalyzing(releaseCtx, roomID, false); err != nil {
		zap.S().Errorw("failed to clear analyzing flag", "room_id", roomID, "error", err)
	}

	elapsed := o.now().Sub(c.startedAt)
	metrics.RoomsAnalyzing.Dec()
	metrics.RevealsTotal.WithLabelValues(result).Inc()
	metrics.RevealDurationSeconds.Observe(elapsed.Seconds())
	o.unlock(roomID)

	zap.S().Infow("reveal finished",
		"room_id", roomID,
		"result", result,
		"duration", elapsed.String(),
	)
	o.publish(releaseCtx, roomID)
}

// analyze classifies every participant. With one worker the calls are
// strictly sequential: participants in order, INITIAL before FINAL.
func (o *Orchestrator) analyze(ctx context.Context, c *cycle) (models.AIResults, error) {
	results := make(models.AIResults, len(c.room.Participants))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(o.workers)
	for _, p := range c.room.Participants {
		g.Go(func() error {
			// A panic outside the classifier call still only costs this participant
			defer func() {
				if rec := recover(); rec != nil {
					zap.S().Errorw("participant analysis panicked",
						"room_id", c.room.Room.ID,
						"participant_id", p.ID,
						"panic", rec,
					)
					mu.Lock()
					results[p.ID] = models.AnalysisResult{
						ParticipantID:   p.ID,
						AutoScores:      []models.ScoreEntry{},
						InitialAnalysis: models.AnalysisFailed,
						FinalAnalysis:   models.AnalysisFailed,
						LastUpdated:     o.now(),
					}
					mu.Unlock()
				}
			}()

			r, ok := o.analyzeParticipant(ctx, c, p)
			if ok {
				mu.Lock()
				results[p.ID] = r
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// analyzeParticipant returns false when the participant has no photos at all.
func (o *Orchestrator) analyzeParticipant(ctx context.Context, c *cycle, p models.ParticipantDetails) (models.AnalysisResult, bool) {
	initial := p.PhotoOf(models.PhotoInitial)
	final := p.PhotoOf(models.PhotoFinal)
	if initial == nil && final == nil {
		return models.AnalysisResult{}, false
	}

	r := models.AnalysisResult{
		ParticipantID:   p.ID,
		AutoScores:      []models.ScoreEntry{},
		InitialAnalysis: models.AnalysisNoPhoto,
		FinalAnalysis:   models.AnalysisNoPhoto,
	}

	if initial != nil {
		res, err := o.classify(ctx, c, p, initial, classifier.ModeInitial)
		if err != nil {
			r.InitialAnalysis = models.AnalysisFailed
		} else {
			r.InitialAnalysis = models.AnalysisOK
			r.AutoScores = append(r.AutoScores, res.Items...)
		}
	}

	if final != nil {
		res, err := o.classify(ctx, c, p, final, classifier.ModeFinal)
		if err != nil || len(res.Items) == 0 {
			r.FinalAnalysis = models.AnalysisFailed
		} else {
			r.FinalAnalysis = models.AnalysisOK
			entry := res.Items[0]
			r.CleanlinessScore = &entry
		}
	}

	r.LastUpdated = o.now()
	return r, true
}

func (o *Orchestrator) classify(ctx context.Context, c *cycle, p models.ParticipantDetails, photo *models.Photo, mode classifier.Mode) (classifier.Result, error) {
	policy := o.policy
	policy.Observer = c.progress
	label := p.Name + " " + strings.ToLower(string(mode))

	res, attempts, err := retry.Do(ctx, policy, label, func(ctx context.Context) (res classifier.Result, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = &classifier.ClassificationError{Kind: classifier.KindPanic, Mode: mode, Err: fmt.Errorf("%v", rec)}
			}
		}()
		return o.classifier.Classify(ctx, photo.URL, mode)
	})
	if err != nil {
		zap.S().Warnw("classification failed",
			"room_id", c.room.Room.ID,
			"participant_id", p.ID,
			"mode", mode,
			"attempts", attempts,
			"error", err,
		)
	}
	return res, err
}

// applyCheat forces the best cleanliness tier for every participant whose
// name contains the room's cheat name, ignoring case. Only successful final
// analyses are overridden.
func applyCheat(cheatName string, participants []models.ParticipantDetails, results models.AIResults) {
	needle := strings.TrimSpace(cheatName)
	if needle == "" {
		return
	}

	fold := cases.Fold()
	needle = fold.String(needle)
	for _, p := range participants {
		if !strings.Contains(fold.String(p.Name), needle) {
			continue
		}
		r, ok := results[p.ID]
		if !ok || r.FinalAnalysis != models.AnalysisOK {
			continue
		}
		r.CleanlinessScore = &models.ScoreEntry{Name: models.CleanlinessItem, Value: models.TierTriple}
		r.CheatApplied = true
		results[p.ID] = r
	}
}

// mergeResults overlays next on prev; entries for the same participant are replaced.
func mergeResults(prev, next models.AIResults) models.AIResults {
	merged := make(models.AIResults, len(prev)+len(next))
	for id, r := range prev {
		merged[id] = r
	}
	for id, r := range next {
		merged[id] = r
	}
	return merged
}

func (o *Orchestrator) lock(roomID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running[roomID] {
		return false
	}
	o.running[roomID] = true
	return true
}

func (o *Orchestrator) unlock(roomID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.running, roomID)
}

func (o *Orchestrator) publish(ctx context.Context, roomID string) {
	if o.notifier == nil {
		return
	}
	status, err := o.Status(ctx, roomID)
	if err != nil {
		zap.S().Warnw("failed to build status for subscribers", "room_id", roomID, "error", err)
		return
	}
	o.notifier.Publish(roomID, status)
}
