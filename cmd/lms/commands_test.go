package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.mu.Lock()
		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})
		ts.mu.Unlock()

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"statusCode":404,"message":"Not Found"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) find(method, path string) (recordedRequest, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for _, r := range ts.requests {
		if r.Method == method && strings.SplitN(r.Path, "?", 2)[0] == path {
			return r, true
		}
	}
	return recordedRequest{}, false
}

// useBackend points every command at ts with a fresh data directory.
func useBackend(t *testing.T, ts *testServer) {
	t.Helper()
	dir := t.TempDir()
	prev := loadConfig
	loadConfig = func() (config.Config, error) {
		return config.Config{
			API:       config.APIConfig{BaseURL: ts.server.URL},
			Storage:   config.StorageConfig{DataDir: dir},
			Log:       config.LogConfig{Level: "error"},
			Hydration: config.HydrationConfig{Concurrency: 2},
			Server:    config.ServerConfig{Port: 4100},
		}, nil
	}
	t.Cleanup(func() { loadConfig = prev })
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the CLI with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	noColor = true

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCoursesListCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /courses": `{"data":{"items":[{"id":1,"title":"HTML Basics","price":0,"level":"BEGINNER"},{"id":2,"title":"React","price":"19.5"}]}}`,
	})
	useBackend(t, ts)

	out, err := run(t, "courses", "list", "--search", "react", "--level", "BEGINNER")
	if err != nil {
		t.Fatalf("courses list: %v", err)
	}
	if !strings.Contains(out, "#1 HTML Basics") || !strings.Contains(out, "#2 React") {
		t.Errorf("output = %q", out)
	}

	r, ok := ts.find("GET", "/courses")
	if !ok {
		t.Fatal("no GET /courses request")
	}
	if r.Path != "/courses?level=BEGINNER&search=react" {
		t.Errorf("path = %q", r.Path)
	}
}

func TestCoursesShowRejectsBadID(t *testing.T) {
	ts := newTestServer(t, nil)
	useBackend(t, ts)

	if _, err := run(t, "courses", "show", "abc"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
	if len(ts.requests) != 0 {
		t.Errorf("requests = %d, want 0", len(ts.requests))
	}
}

func TestLoginPersistsSession(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /auth/login":           `{"access_token":"tok-1","user":{"id":7,"email":"a@b.co","role":"STUDENT"}}`,
		"GET /enrollments/my-courses": `[{"id":1,"course_id":3,"progress":50,"course":{"id":3,"title":"Go"}}]`,
	})
	useBackend(t, ts)

	if _, err := run(t, "login", "--email", "a@b.co", "--password", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := run(t, "enrollments")
	if err != nil {
		t.Fatalf("enrollments: %v", err)
	}
	if !strings.Contains(out, "#3 Go") {
		t.Errorf("output = %q", out)
	}
	r, _ := ts.find("GET", "/enrollments/my-courses")
	if r.Auth != "Bearer tok-1" {
		t.Errorf("auth = %q, want Bearer tok-1", r.Auth)
	}

	if _, err := run(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := run(t, "enrollments"); !errors.Is(err, errNotSignedIn) {
		t.Errorf("enrollments after logout: err = %v, want errNotSignedIn", err)
	}
}

func TestLoginValidatesInput(t *testing.T) {
	ts := newTestServer(t, nil)
	useBackend(t, ts)

	_, err := run(t, "login", "--email", "not-an-email", "--password", "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(ts.requests) != 0 {
		t.Errorf("requests = %d, want 0", len(ts.requests))
	}
}

func TestRecommendThenSavePath(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /auth/login": `{"token":"tok-2","user":{"id":9,"email":"s@b.co"}}`,
		"POST /recommendations": `{"id":10,"concepts":["HTML"],"courses_by_stage":{
			"FOUNDATION":[{"id":1,"title":"HTML Basics","rationale":"start here"},{"id":2,"title":"CSS"}],
			"INTERMEDIATE":[{"id":3,"title":"React"}]}}`,
		"GET /courses/1": `{"id":1,"title":"HTML Basics","price":0,"rating":4.5}`,
		"GET /courses/2": `{"id":2,"title":"CSS","price":10}`,
		"GET /courses/3": `{"id":3,"title":"React","price":20}`,
		"POST /recommendations/10/learning-paths": `{"id":55}`,
	})
	useBackend(t, ts)

	if _, err := run(t, "login", "--email", "s@b.co", "--password", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := run(t, "recommend", "--goal", "Frontend developer", "--pref", "video", "--exclude", "2", "--json")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	var view struct {
		ID     string `json:"id"`
		Stages []struct {
			Stage   string `json:"stage"`
			Courses []struct {
				ID int64 `json:"id"`
			} `json:"courses"`
		} `json:"stages"`
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decoding output %q: %v", out, err)
	}
	if view.ID != "10" {
		t.Errorf("id = %q, want 10", view.ID)
	}
	for _, g := range view.Stages {
		for _, c := range g.Courses {
			if c.ID == 2 {
				t.Errorf("excluded course 2 listed under %s", g.Stage)
			}
		}
	}

	req, _ := ts.find("POST", "/recommendations")
	var body map[string]any
	json.Unmarshal([]byte(req.Body), &body)
	if body["goal"] != "Frontend developer" {
		t.Errorf("request goal = %v", body["goal"])
	}

	for _, id := range []string{"1", "3", "1"} {
		if _, err := run(t, "path", "add", id); err != nil {
			t.Fatalf("path add %s: %v", id, err)
		}
	}
	out, err = run(t, "path", "show", "--json")
	if err != nil {
		t.Fatalf("path show: %v", err)
	}
	if strings.Join(strings.Fields(out), "") != "[1,3]" {
		t.Errorf("path = %q, want [1,3]", out)
	}

	if _, err := run(t, "path", "save", "--name", "Frontend"); err != nil {
		t.Fatalf("path save: %v", err)
	}
	save, ok := ts.find("POST", "/recommendations/10/learning-paths")
	if !ok {
		t.Fatal("no save request")
	}
	var saved struct {
		Name string  `json:"name"`
		IDs  []int64 `json:"selectedCourseIds"`
	}
	json.Unmarshal([]byte(save.Body), &saved)
	if saved.Name != "Frontend" || len(saved.IDs) != 2 || saved.IDs[0] != 1 || saved.IDs[1] != 3 {
		t.Errorf("save body = %s", save.Body)
	}
}

func TestRecommendSplitsPreferenceText(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /recommendations": `{"id":11,"courses":[]}`,
	})
	useBackend(t, ts)

	if flag := recommendCmd.Flags().Lookup("prefs"); !strings.Contains(flag.Usage, "comma or pipe") {
		t.Errorf("--prefs usage = %q", flag.Usage)
	}
	if _, err := run(t, "recommend", "--goal", "Go", "--prefs", "video| short ,free", "--json"); err != nil {
		t.Fatalf("recommend: %v", err)
	}
	req, _ := ts.find("POST", "/recommendations")
	var body struct {
		Preferences []string `json:"preferences"`
	}
	json.Unmarshal([]byte(req.Body), &body)
	if strings.Join(body.Preferences, ",") != "video,short,free" {
		t.Errorf("preferences = %q", body.Preferences)
	}
}

func TestPathIsPerUser(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /auth/login": `{"token":"tok-3","user":{"id":4,"email":"u@b.co"}}`,
	})
	useBackend(t, ts)

	if _, err := run(t, "path", "add", "5"); err != nil {
		t.Fatalf("guest add: %v", err)
	}
	if _, err := run(t, "login", "--email", "u@b.co", "--password", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	out, err := run(t, "path", "show", "--json")
	if err != nil {
		t.Fatalf("path show: %v", err)
	}
	if strings.Join(strings.Fields(out), "") != "[]" {
		t.Errorf("signed-in path = %q, want []", out)
	}
}

func TestPathAddRejectsNonPositive(t *testing.T) {
	ts := newTestServer(t, nil)
	useBackend(t, ts)

	if _, err := run(t, "path", "add", "0"); err == nil {
		t.Fatal("expected error for id 0")
	}
}

func TestAskNeedsRecommendation(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /recommendations/ask": `{"answer":"Start with HTML."}`,
	})
	useBackend(t, ts)

	if _, err := run(t, "ask", "where", "to", "start?"); !errors.Is(err, errNoLastRecommendation) {
		t.Fatalf("err = %v, want errNoLastRecommendation", err)
	}

	out, err := run(t, "ask", "--recommendation", "10", "where", "to", "start?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if strings.TrimSpace(out) != "Start with HTML." {
		t.Errorf("output = %q", out)
	}
	r, _ := ts.find("POST", "/recommendations/ask")
	if !strings.Contains(r.Body, `"question":"where to start?"`) {
		t.Errorf("body = %s", r.Body)
	}
}

func TestClarifySendsHistory(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /recommendations/clarify": `{"answer":"ok"}`,
	})
	useBackend(t, ts)

	out, err := run(t, "clarify", "--goal", "Data science", "-q", "What is pandas?", "-q", "Do I need math?")
	if err != nil {
		t.Fatalf("clarify: %v", err)
	}
	if strings.Count(out, "A: ok") != 2 {
		t.Errorf("output = %q", out)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(ts.requests))
	}
	var second struct {
		Context struct {
			Goal    string `json:"goal"`
			History []struct {
				Question string `json:"question"`
			} `json:"history"`
		} `json:"context"`
	}
	json.Unmarshal([]byte(ts.requests[1].Body), &second)
	if second.Context.Goal != "Data science" {
		t.Errorf("goal = %q", second.Context.Goal)
	}
	if len(second.Context.History) != 1 || second.Context.History[0].Question != "What is pandas?" {
		t.Errorf("history = %+v", second.Context.History)
	}
}

func TestSubmitValidatesBeforeSending(t *testing.T) {
	ts := newTestServer(t, nil)
	useBackend(t, ts)

	if _, err := run(t, "assignments", "submit", "4"); err == nil {
		t.Fatal("expected validation error without content or file")
	}
	if len(ts.requests) != 0 {
		t.Errorf("requests = %d, want 0", len(ts.requests))
	}
}

func TestConfigSetAndUnset(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	if _, err := run(t, "config", "set", "log.level", "loud"); err == nil {
		t.Error("expected validation error for log.level=loud")
	}
	if _, err := run(t, "config", "set", "server.token", "x"); err == nil {
		t.Error("expected error setting a secret")
	}
	if _, err := run(t, "config", "set", "log.level", "debug"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := run(t, "config", "unset", "log.level"); err != nil {
		t.Fatalf("config unset: %v", err)
	}
}

func TestColorize(t *testing.T) {
	prev := noColor
	defer func() { noColor = prev }()

	noColor = true
	if got := colorize(colorRed, "x"); got != "x" {
		t.Errorf("no-color = %q", got)
	}
	noColor = false
	if got := colorize(colorRed, "x"); got != colorRed+"x"+colorReset {
		t.Errorf("color = %q", got)
	}
}
