package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
)

func TestExamSetService(t *testing.T) {
	env := newTestEnv()
	ready, _ := env.store.seedExamSet("Ready", 3, 5)
	env.store.seedExamSet("Not ready", 10, 4)
	svc := NewExamSetService(env.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	t.Run("get by id", func(t *testing.T) {
		got, err := svc.GetByID(ctx, ready.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.AvailableQuestions != 5 || !got.Startable {
			t.Errorf("GetByID() = %+v", got)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := svc.GetByID(ctx, 999); !errors.Is(err, ErrExamSetNotFound) {
			t.Errorf("GetByID() error = %v, want ErrExamSetNotFound", err)
		}
	})

	t.Run("list flags unstartable sets", func(t *testing.T) {
		list, err := svc.List(ctx, repositories.ExamSetFilters{Limit: 10})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if list.Total != 2 {
			t.Fatalf("List() total = %d, want 2", list.Total)
		}
		for _, set := range list.ExamSets {
			if want := set.Name == "Ready"; set.Startable != want {
				t.Errorf("%s startable = %v, want %v", set.Name, set.Startable, want)
			}
		}
	})

	t.Run("query filter", func(t *testing.T) {
		list, err := svc.List(ctx, repositories.ExamSetFilters{Query: "not"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if list.Total != 1 || list.ExamSets[0].Name != "Not ready" {
			t.Errorf("List() = %+v", list)
		}
	})
}

func TestServiceManager(t *testing.T) {
	env := newTestEnv()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sm := NewDefaultServiceManager(env.store, env.navigation, env.publisher, logger, nil)
	ctx := context.Background()

	if err := sm.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() before Initialize should fail")
	}
	if err := sm.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if sm.ExamSession() == nil || sm.ExamSet() == nil || sm.ImportExport() == nil {
		t.Error("services not wired")
	}
	if err := sm.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if err := sm.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := sm.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() after Shutdown should fail")
	}
}
