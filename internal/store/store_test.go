// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package store_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/assets"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/diagnostic"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/store"
)

func getTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	s, err := store.Connect(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return s
}

func TestHealthCheck(t *testing.T) {
	s := getTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.HealthCheck(ctx); err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	s := getTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestSaveAndGetReport(t *testing.T) {
	s := getTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	target, err := diagnostic.NewTarget("store-test.example.com", "")
	if err != nil {
		t.Fatal(err)
	}
	r := diagnostic.NewReport(target)
	for i := range r.Steps {
		r.Steps[i].Status = diagnostic.StatusPass
	}
	r.Steps[5] = diagnostic.StepResult{ID: diagnostic.StepVMC, Status: diagnostic.StatusWarn, Detail: "a= tag missing"}

	if err := s.SaveReport(ctx, r); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	// Saving again updates in place.
	if err := s.SaveReport(ctx, r); err != nil {
		t.Fatalf("SaveReport again: %v", err)
	}

	got, err := s.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.ID != r.ID || got.Target != r.Target || got.Steps != r.Steps {
		t.Errorf("round trip mismatch: %+v", got)
	}

	list, err := s.ListReports(ctx, target.Domain, 5)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(list) == 0 || list[0].ID != r.ID || list[0].Score != 83 || !list[0].Complete {
		t.Errorf("list = %+v", list)
	}
}

func TestGetReport_NotFound(t *testing.T) {
	s := getTestStore(t)
	for _, id := range []string{"00000000-0000-0000-0000-000000000000", "not-a-uuid"} {
		if _, err := s.GetReport(context.Background(), id); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("GetReport(%q) err = %v, want ErrNotFound", id, err)
		}
	}
}

func TestSaveValidation(t *testing.T) {
	s := getTestStore(t)
	c := &assets.Candidate{SourceText: `<svg viewBox="0 0 1 1"><script/></svg>`}
	assets.NewValidator().Validate(c)

	id, err := s.SaveValidation(context.Background(), "upload", c)
	if err != nil || id == "" {
		t.Fatalf("SaveValidation: id=%q err=%v", id, err)
	}

	if _, err := s.SaveValidation(context.Background(), "upload", &assets.Candidate{SourceText: "<svg/>"}); err == nil {
		t.Error("expected error for an unvalidated candidate")
	}
}
