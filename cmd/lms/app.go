package main

import (
	"context"
	"fmt"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/auth"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/config"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/pathstore"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/recommend"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/service"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/storage"
)

// lastRecommendationKey remembers the most recent recommendation id between
// invocations, so ask and path save can refer to it.
const lastRecommendationKey = "lastRecommendationId"

// app is everything one command needs, wired over a single session.
type app struct {
	cfg   config.Config
	store *storage.Store
	svc   *service.Services
	auth  *auth.Manager
	orch  *recommend.Orchestrator
}

var loadConfig = config.Load

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.Log.Level)

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	session := client.NewSession()
	svc := service.New(client.New(cfg.API.BaseURL, session))

	mgr := auth.NewManager(svc.Auth, store, session)
	path := pathstore.New(store, "")
	orch := recommend.New(svc.LearningPaths, svc.Courses, path,
		recommend.WithConcurrency(cfg.Hydration.Concurrency))
	mgr.OnUserChange(orch.SetUser)
	mgr.Init(ctx)

	return &app{cfg: cfg, store: store, svc: svc, auth: mgr, orch: orch}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		printWarning("closing storage: %v", err)
	}
}

func (a *app) lastRecommendation() string {
	v, _, _ := a.store.GetItem(lastRecommendationKey)
	return v
}

func (a *app) rememberRecommendation(id string) {
	if id == "" {
		return
	}
	if err := a.store.SetItem(lastRecommendationKey, id); err != nil {
		printWarning("remembering recommendation: %v", err)
	}
}

// withApp opens the app for the duration of fn.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
