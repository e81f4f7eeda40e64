package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/pathstore"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/recommend"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/service"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/storage"
)

// --- mocks ---

type mockBackend struct {
	mu      sync.Mutex
	reqs    []service.RecommendationRequest
	saved   [][]int64
	saveErr error
	courses map[int64]service.Course
}

func (m *mockBackend) Recommend(_ context.Context, req service.RecommendationRequest) (service.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	return service.Recommendation{
		ID:        "rec-1",
		Concepts:  []string{"HTML"},
		HasStages: true,
		CoursesByStage: map[service.Stage][]service.Course{
			service.StageFoundation: {{ID: 1, Title: "HTML Basics"}, {ID: 1, Title: "dup"}, {Title: "slot"}},
			service.StageAdvanced:   {{ID: 2, Title: "React"}},
		},
	}, nil
}

func (m *mockBackend) Ask(_ context.Context, id, q string) (string, error) {
	return fmt.Sprintf("%s: %s", id, q), nil
}

func (m *mockBackend) SavePath(_ context.Context, id, name string, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.saved = append(m.saved, ids)
	return 42, nil
}

func (m *mockBackend) Get(_ context.Context, id int64) (service.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return service.Course{}, &client.APIError{Status: 404, Message: "Course not found"}
	}
	return c, nil
}

func (m *mockBackend) MyPaths(context.Context) ([]service.LearningPath, error) {
	return []service.LearningPath{{ID: 42, Name: "Frontend", Items: []service.PathItem{{CourseID: 1}}}}, nil
}

func (m *mockBackend) Clarify(_ context.Context, req service.ClarifyRequest) (string, error) {
	if req.Question == "fail" {
		return "", errors.New("clarify unavailable")
	}
	return "answer: " + req.Question, nil
}

type mockSession struct{ user *service.User }

func (m mockSession) IsAuthenticated() bool { return m.user != nil }
func (m mockSession) User() *service.User   { return m.user }

// --- helpers ---

func newTestOrchestrator(t *testing.T, backend *mockBackend) *recommend.Orchestrator {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return recommend.New(backend, backend, pathstore.New(store, ""))
}

func newTestDeps(t *testing.T) (AppDeps, *mockBackend) {
	t.Helper()
	price := 12.0
	backend := &mockBackend{courses: map[int64]service.Course{
		1: {ID: 1, Title: "HTML Basics (full)", Instructor: "Lan", Category: "Web", Description: "Tags", Price: &price, Rating: &price},
	}}
	return AppDeps{
		Orchestrator: newTestOrchestrator(t, backend),
		Session:      mockSession{user: &service.User{ID: "7", Email: "a@b.co"}},
		Paths:        backend,
		Clarifier:    backend,
	}, backend
}
