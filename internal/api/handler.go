// Package api exposes the recommendation orchestrator over a local JSON API
// and an MCP server, so a UI or an assistant can render and curate the
// current learning path.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/recommend"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Session reports who is signed in.
type Session interface {
	IsAuthenticated() bool
	User() *service.User
}

// PathLister lists learning paths saved on the server.
type PathLister interface {
	MyPaths(ctx context.Context) ([]service.LearningPath, error)
}

type AppDeps struct {
	Orchestrator *recommend.Orchestrator
	Session      Session
	Paths        PathLister
	Clarifier    recommend.Clarifier
	Token        string
}

// RecommendationView is the current recommendation as a UI renders it.
type RecommendationView struct {
	ID            string                 `json:"id"`
	Goal          string                 `json:"goal"`
	Concepts      []string               `json:"concepts"`
	Careers       []string               `json:"careers"`
	Stages        []recommend.StageGroup `json:"stages"`
	NotInterested []int64                `json:"notInterested"`
	Loading       bool                   `json:"loading"`
}

func currentView(o *recommend.Orchestrator) (RecommendationView, bool) {
	res := o.Result()
	if res == nil {
		return RecommendationView{}, false
	}
	v := RecommendationView{
		ID:            res.ID,
		Goal:          o.Input().Goal,
		Concepts:      res.Concepts,
		Careers:       res.Careers,
		Stages:        o.Groups(),
		NotInterested: o.NotInterested(),
		Loading:       o.Loading(),
	}
	if v.Concepts == nil {
		v.Concepts = []string{}
	}
	if v.Careers == nil {
		v.Careers = []string{}
	}
	return v, true
}

// PathEntry is one saved course with whatever detail is cached for it.
type PathEntry struct {
	CourseID int64           `json:"courseId"`
	Course   *service.Course `json:"course,omitempty"`
}

func pathView(o *recommend.Orchestrator) []PathEntry {
	ids := o.Path()
	out := make([]PathEntry, len(ids))
	for i, id := range ids {
		out[i] = PathEntry{CourseID: id}
		if c, ok := o.Course(id); ok {
			out[i].Course = &c
		}
	}
	return out
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/session", handleSession(deps))
		r.Post("/recommendations", handleGenerate(deps))
		r.Get("/recommendations/current", handleCurrent(deps))
		r.Post("/recommendations/current/ask", handleAsk(deps))
		r.Put("/not-interested/{courseId}", handleNotInterested(deps, true))
		r.Delete("/not-interested/{courseId}", handleNotInterested(deps, false))
		r.Get("/path", handleGetPath(deps))
		r.Put("/path/{courseId}", handlePathItem(deps, true))
		r.Delete("/path/{courseId}", handlePathItem(deps, false))
		r.Post("/path/save", handleSavePath(deps))
		r.Get("/learning-paths", handleLearningPaths(deps))

		c := &clarifications{svc: deps.Clarifier}
		r.Post("/clarify", c.handleAsk(deps))
		r.Get("/clarify", c.handleTurns)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func courseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "courseId"), 10, 64)
	if err != nil || id <= 0 {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "courseId must be a positive integer")
		return 0, false
	}
	return id, true
}

func handleSession(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": deps.Session.IsAuthenticated(),
			"user":          deps.Session.User(),
		})
	}
}

func handleGenerate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in recommend.Input
		if !decodeBody(w, r, &in) {
			return
		}
		if _, err := deps.Orchestrator.Generate(r.Context(), in); err != nil {
			writeErr(w, err)
			return
		}
		v, _ := currentView(deps.Orchestrator)
		writeJSON(w, http.StatusOK, v)
	}
}

func handleCurrent(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := currentView(deps.Orchestrator)
		if !ok {
			writeErr(w, recommend.ErrNoRecommendation)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func handleAsk(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Question string `json:"question"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		answer, err := deps.Orchestrator.Ask(r.Context(), body.Question)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
	}
}

func handleNotInterested(deps AppDeps, mark bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := courseIDParam(w, r)
		if !ok {
			return
		}
		if mark {
			deps.Orchestrator.MarkNotInterested(id)
		} else {
			deps.Orchestrator.ClearNotInterested(id)
		}
		writeJSON(w, http.StatusOK, map[string]any{"notInterested": deps.Orchestrator.NotInterested()})
	}
}

func handleGetPath(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": pathView(deps.Orchestrator)})
	}
}

func handlePathItem(deps AppDeps, add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := courseIDParam(w, r)
		if !ok {
			return
		}
		var err error
		if add {
			err = deps.Orchestrator.AddToPath(id)
		} else {
			err = deps.Orchestrator.RemoveFromPath(id)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": pathView(deps.Orchestrator)})
	}
}

func handleSavePath(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RecommendationID string  `json:"recommendationId"`
			Name             string  `json:"name"`
			CourseIDs        []int64 `json:"courseIds"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		ids := body.CourseIDs
		if ids == nil {
			ids = deps.Orchestrator.Path()
		}
		id, err := deps.Orchestrator.SavePathToServer(r.Context(), body.RecommendationID, body.Name, ids)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	}
}

func handleLearningPaths(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paths, err := deps.Paths.MyPaths(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": paths})
	}
}

// clarifications keeps the beginner conversation for the goal being
// discussed. Asking about a different goal starts a new conversation.
type clarifications struct {
	svc recommend.Clarifier

	mu   sync.Mutex
	conv *recommend.Conversation
}

func (c *clarifications) handleAsk(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Question     string   `json:"question"`
			Goal         string   `json:"goal"`
			CurrentLevel string   `json:"currentLevel"`
			Preferences  []string `json:"preferences"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if strings.TrimSpace(body.Goal) == "" {
			in := deps.Orchestrator.Input()
			body.Goal, body.CurrentLevel, body.Preferences = in.Goal, in.CurrentLevel, in.Preferences
		}

		c.mu.Lock()
		if c.conv == nil || c.conv.Goal() != strings.TrimSpace(body.Goal) {
			c.conv = recommend.NewConversation(c.svc, body.Goal, body.CurrentLevel, body.Preferences)
		}
		conv := c.conv
		c.mu.Unlock()

		id, err := conv.Ask(r.Context(), body.Question)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]int{"id": id})
	}
}

func (c *clarifications) handleTurns(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	conv := c.conv
	c.mu.Unlock()

	turns := []recommend.Turn{}
	goal := ""
	if conv != nil {
		turns = conv.Turns()
		goal = conv.Goal()
	}
	writeJSON(w, http.StatusOK, map[string]any{"goal": goal, "turns": turns})
}
