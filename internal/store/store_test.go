package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gameview/reconstruct/internal/model"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "productions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetProduction(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	p := model.Production{
		ID:           "prod-1",
		ExperienceID: "exp-1",
		CreatedAt:    now,
		UpdatedAt:    now,
		Status:       model.StatusQueued,
	}
	if err := s.CreateProduction(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetProduction(ctx, "prod-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "prod-1" || got.ExperienceID != "exp-1" || got.Status != model.StatusQueued {
		t.Fatalf("unexpected production: %+v", got)
	}
}

func TestGetProductionNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetProduction(context.Background(), "missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateProductionPatchesOnlySetFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := s.CreateProduction(ctx, model.Production{
		ID: "prod-1", ExperienceID: "exp-1", CreatedAt: now, UpdatedAt: now,
		Status: model.StatusQueued,
	}); err != nil {
		t.Fatal(err)
	}

	status := string(model.StatusRunning)
	stage := model.StageTraining
	progress := 65
	if err := s.UpdateProduction(ctx, "prod-1", model.ProductionPatch{
		Status: &status, Stage: &stage, Progress: &progress,
	}); err != nil {
		t.Fatal(err)
	}

	errMsg := "sparse reconstruction failed"
	failed := string(model.StatusError)
	if err := s.UpdateProduction(ctx, "prod-1", model.ProductionPatch{
		Status: &failed, Error: &errMsg,
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetProduction(ctx, "prod-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusError {
		t.Errorf("status %s, want error", got.Status)
	}
	if got.Stage != model.StageTraining || got.Progress != 65 {
		t.Errorf("patch clobbered untouched fields: %+v", got)
	}
	if got.Error != errMsg {
		t.Errorf("error %q, want %q", got.Error, errMsg)
	}
}

func TestListProductionsFiltersByStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i, status := range []model.Status{model.StatusDone, model.StatusError, model.StatusDone} {
		p := model.Production{
			ID:           "prod-" + string(rune('a'+i)),
			ExperienceID: "exp-1",
			CreatedAt:    now,
			UpdatedAt:    now.Add(time.Duration(i) * time.Second),
			Status:       status,
		}
		if err := s.CreateProduction(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	done := model.StatusDone
	got, err := s.ListProductions(ctx, &done, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d productions, want 2", len(got))
	}
	for _, p := range got {
		if p.Status != model.StatusDone {
			t.Errorf("unexpected status %s", p.Status)
		}
	}

	all, err := s.ListProductions(ctx, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d productions, want 3", len(all))
	}
}
