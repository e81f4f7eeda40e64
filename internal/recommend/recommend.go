// Package recommend turns a learning goal into a stage-grouped course plan
// and keeps the user's curation of it: a not-interested set for the session
// and a persisted path of chosen courses.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/pathstore"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/service"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/validation"
)

var (
	// ErrSuperseded is returned by Generate when a newer Generate started
	// before this one's response arrived. The response is discarded.
	ErrSuperseded = errors.New("recommendation superseded by a newer request")

	// ErrNoSelection is returned when saving a path with no courses.
	ErrNoSelection = errors.New("select at least one course to save")

	// ErrNoRecommendation is returned by operations that need a current
	// recommendation before any has been generated.
	ErrNoRecommendation = errors.New("no recommendation yet, generate one first")
)

const defaultConcurrency = 4

// Recommender is the subset of the learning-path service the orchestrator
// drives.
type Recommender interface {
	Recommend(ctx context.Context, req service.RecommendationRequest) (service.Recommendation, error)
	Ask(ctx context.Context, recommendationID, question string) (string, error)
	SavePath(ctx context.Context, recommendationID, name string, courseIDs []int64) (int64, error)
}

// CourseFetcher loads a full course record for hydration.
type CourseFetcher interface {
	Get(ctx context.Context, id int64) (service.Course, error)
}

// Mode selects how much explanation the recommendation carries.
type Mode string

const (
	ModeGuided Mode = "guided"
	ModeDirect Mode = "direct"
)

// params maps the mode onto the request's verbosity and guidance mode.
// Anything other than direct is treated as guided.
func (m Mode) params() (verbosity, guidance string) {
	if m == ModeDirect {
		return "medium", "standard"
	}
	return "deep", "novice"
}

// Input is what a user submits to generate a recommendation. Preferences
// wins over PreferenceText when it has any entries.
type Input struct {
	Goal           string   `json:"goal"`
	CurrentLevel   string   `json:"currentLevel"`
	Preferences    []string `json:"preferences"`
	PreferenceText string   `json:"preferenceText"`
	Mode           Mode     `json:"mode"`
}

// BuildPreferences returns the explicit tags if any survive trimming,
// otherwise the comma or pipe separated entries of text.
func BuildPreferences(tags []string, text string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, t := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '|' }) {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type Option func(*Orchestrator)

// WithConcurrency bounds the number of detail fetches run at once while
// hydrating.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// Orchestrator holds the current recommendation and everything derived
// from it. It is safe for concurrent use.
type Orchestrator struct {
	svc         Recommender
	courses     CourseFetcher
	path        *pathstore.Path
	concurrency int

	mu            sync.Mutex
	seq           uint64 // last issued Generate
	loadingSeq    uint64 // in-flight Generate that is still the latest, 0 when idle
	resultSeq     uint64 // Generate the current result came from
	result        *service.Recommendation
	input         Input
	lastErr       string
	cache         map[int64]service.Course
	notInterested map[int64]bool
	hydrated      chan struct{}
	cancelHydrate context.CancelFunc
}

func New(svc Recommender, courses CourseFetcher, path *pathstore.Path, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		svc:           svc,
		courses:       courses,
		path:          path,
		concurrency:   defaultConcurrency,
		cache:         make(map[int64]service.Course),
		notInterested: make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate requests a new recommendation and makes it current. An empty
// goal fails validation without a request. On failure the previous result
// stays current. Hydration of incomplete course records continues in the
// background after Generate returns; see WaitHydrated.
func (o *Orchestrator) Generate(ctx context.Context, in Input) (*service.Recommendation, error) {
	goal := strings.TrimSpace(in.Goal)
	if err := validation.Var("goal", goal, "required"); err != nil {
		o.setError(err)
		return nil, err
	}
	verbosity, guidance := in.Mode.params()
	req := service.RecommendationRequest{
		Goal:         goal,
		CurrentLevel: strings.TrimSpace(in.CurrentLevel),
		Preferences:  BuildPreferences(in.Preferences, in.PreferenceText),
		Verbosity:    verbosity,
		GuidanceMode: guidance,
	}
	if err := validation.Struct(req); err != nil {
		o.setError(err)
		return nil, err
	}

	o.mu.Lock()
	o.seq++
	seq := o.seq
	o.loadingSeq = seq
	o.mu.Unlock()

	res, err := o.svc.Recommend(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.seq {
		slog.Debug("discarding superseded recommendation", "seq", seq, "latest", o.seq)
		return nil, ErrSuperseded
	}
	o.loadingSeq = 0
	if err != nil {
		slog.Warn("generating recommendation", "goal", goal, "error", err)
		o.lastErr = err.Error()
		return nil, fmt.Errorf("generating recommendation: %w", err)
	}

	o.lastErr = ""
	o.result = &res
	o.resultSeq = seq
	o.input = in
	o.input.Goal = goal
	o.input.Preferences = req.Preferences

	ids := o.seedCache(res)
	o.startHydration(ctx, seq, ids)

	out := res
	return &out, nil
}

func (o *Orchestrator) setError(err error) {
	o.mu.Lock()
	o.lastErr = err.Error()
	o.mu.Unlock()
}

// seedCache rebuilds the course cache from res and returns the ids that
// need a detail fetch: every id of a flat list, or the staged entries
// that lack detail. Callers hold o.mu.
func (o *Orchestrator) seedCache(res service.Recommendation) []int64 {
	o.cache = make(map[int64]service.Course)
	var entries []service.Course
	if res.HasStages {
		for _, st := range service.Stages {
			entries = append(entries, res.CoursesByStage[st]...)
		}
	} else {
		entries = res.Courses
	}

	var order []int64
	for _, c := range entries {
		if c.IsPlaceholder() {
			continue
		}
		if prev, ok := o.cache[c.ID]; ok {
			o.cache[c.ID] = prev.FillMissing(c)
			continue
		}
		o.cache[c.ID] = c
		order = append(order, c.ID)
	}

	if !res.HasStages {
		return order
	}
	var ids []int64
	for _, id := range order {
		if o.cache[id].MissingDetail() {
			ids = append(ids, id)
		}
	}
	return ids
}

// startHydration cancels any hydration of an earlier result and fetches ids
// in the background. Callers hold o.mu.
func (o *Orchestrator) startHydration(ctx context.Context, seq uint64, ids []int64) {
	if o.cancelHydrate != nil {
		o.cancelHydrate()
	}
	hctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	o.cancelHydrate = cancel
	o.hydrated = done

	if len(ids) == 0 {
		cancel()
		close(done)
		return
	}

	go func() {
		defer close(done)
		defer cancel()

		var g errgroup.Group
		g.SetLimit(o.concurrency)
		for _, id := range ids {
			g.Go(func() error {
				detail, err := o.courses.Get(hctx, id)
				if err != nil {
					// Hydration only enriches; a missing detail is not an error.
					slog.Debug("hydrating course", "id", id, "error", err)
					return nil
				}
				o.merge(seq, id, detail)
				return nil
			})
		}
		g.Wait()
		slog.Debug("hydration finished", "seq", seq, "courses", len(ids))
	}()
}

// merge fills the cached entry for id with fields it lacks. A detail
// belonging to a replaced result is dropped.
func (o *Orchestrator) merge(seq uint64, id int64, detail service.Course) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.resultSeq {
		return
	}
	o.cache[id] = o.cache[id].FillMissing(detail)
}

// WaitHydrated blocks until background hydration of the current result is
// done or ctx ends.
func (o *Orchestrator) WaitHydrated(ctx context.Context) error {
	o.mu.Lock()
	done := o.hydrated
	o.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result returns the current recommendation, or nil.
func (o *Orchestrator) Result() *service.Recommendation {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return nil
	}
	out := *o.result
	return &out
}

// Input returns the input the current result was generated from.
func (o *Orchestrator) Input() Input {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.input
}

// Loading reports whether the latest Generate is still waiting on the
// backend.
func (o *Orchestrator) Loading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loadingSeq != 0
}

// LastError is the message of the last failed foreground operation, cleared
// by the next successful Generate.
func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Course returns the cached record for id, hydrated when detail has
// arrived.
func (o *Orchestrator) Course(id int64) (service.Course, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.cache[id]
	return c, ok
}

// Groups groups the current result, hiding not-interested courses, and
// fills each entry with whatever hydration has added so far.
func (o *Orchestrator) Groups() []StageGroup {
	o.mu.Lock()
	defer o.mu.Unlock()
	groups := GroupByStage(o.result, o.notInterested)
	for gi := range groups {
		for ci, c := range groups[gi].Courses {
			if cached, ok := o.cache[c.ID]; ok {
				groups[gi].Courses[ci] = c.FillMissing(cached)
			}
		}
	}
	return groups
}

func (o *Orchestrator) MarkNotInterested(id int64) {
	o.mu.Lock()
	o.notInterested[id] = true
	o.mu.Unlock()
}

func (o *Orchestrator) ClearNotInterested(id int64) {
	o.mu.Lock()
	delete(o.notInterested, id)
	o.mu.Unlock()
}

// NotInterested lists the suppressed course ids in ascending order.
func (o *Orchestrator) NotInterested() []int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]int64, 0, len(o.notInterested))
	for id := range o.notInterested {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SetUser points the saved path at userID's key.
func (o *Orchestrator) SetUser(userID string) {
	o.path.SetUser(userID)
}

// AddToPath appends a course to the saved path. Placeholders cannot be
// selected.
func (o *Orchestrator) AddToPath(id int64) error {
	if id <= 0 {
		return validation.New("courseId", "courseId must be a positive integer")
	}
	_, err := o.path.Add(id)
	return err
}

func (o *Orchestrator) RemoveFromPath(id int64) error {
	_, err := o.path.Remove(id)
	return err
}

// Path returns the saved course ids in the order they were added.
func (o *Orchestrator) Path() []int64 {
	return o.path.IDs()
}

type saveRequest struct {
	RecommendationID string  `json:"recommendationId" validate:"required"`
	Name             string  `json:"name" validate:"notblank,max=200"`
	CourseIDs        []int64 `json:"selectedCourseIds"`
}

// SavePathToServer stores a named snapshot of ids against a
// recommendation and returns the created path id. An empty
// recommendationID means the current one; an empty name defaults to one
// built from the goal. The local path is never changed.
func (o *Orchestrator) SavePathToServer(ctx context.Context, recommendationID, name string, ids []int64) (int64, error) {
	var selected []int64
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			selected = append(selected, id)
		}
	}
	if len(selected) == 0 {
		return 0, ErrNoSelection
	}

	o.mu.Lock()
	if recommendationID == "" && o.result != nil {
		recommendationID = o.result.ID
	}
	if strings.TrimSpace(name) == "" && o.input.Goal != "" {
		name = "Learning path: " + o.input.Goal
	}
	o.mu.Unlock()

	req := saveRequest{RecommendationID: recommendationID, Name: strings.TrimSpace(name), CourseIDs: selected}
	if err := validation.Struct(req); err != nil {
		return 0, err
	}

	id, err := o.svc.SavePath(ctx, req.RecommendationID, req.Name, req.CourseIDs)
	if err != nil {
		slog.Warn("saving learning path", "recommendation", req.RecommendationID, "error", err)
		return 0, fmt.Errorf("saving learning path: %w", err)
	}
	slog.Info("learning path saved", "id", id, "courses", len(selected))
	return id, nil
}

// Ask sends a follow-up question about the current recommendation.
func (o *Orchestrator) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if err := validation.Var("question", question, "required"); err != nil {
		return "", err
	}
	res := o.Result()
	if res == nil || res.ID == "" {
		return "", ErrNoRecommendation
	}
	answer, err := o.svc.Ask(ctx, res.ID, question)
	if err != nil {
		slog.Warn("asking about recommendation", "recommendation", res.ID, "error", err)
		return "", fmt.Errorf("asking follow-up: %w", err)
	}
	return answer, nil
}
