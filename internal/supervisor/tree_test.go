// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// stubService implements suture.Service and counts starts and stops.
type stubService struct {
	name       string
	startCount atomic.Int32
	stopCount  atomic.Int32
}

func (s *stubService) Serve(ctx context.Context) error {
	s.startCount.Add(1)
	defer s.stopCount.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) String() string { return s.name }

func testTreeLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestTreeLifecycle(t *testing.T) {
	t.Run("starts and stops services in both layers", func(t *testing.T) {
		tree := NewTree(testTreeLogger(), TreeConfig{
			FailureBackoff:  100 * time.Millisecond,
			ShutdownTimeout: time.Second,
		})

		control := &stubService{name: "stub-control"}
		api := &stubService{name: "stub-api"}
		tree.AddControlService(control)
		tree.AddAPIService(api)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)

		deadline := time.After(2 * time.Second)
		for control.startCount.Load() == 0 || api.startCount.Load() == 0 {
			select {
			case <-deadline:
				t.Fatal("services did not start in time")
			case <-time.After(10 * time.Millisecond):
			}
		}

		cancel()
		// One terminal error; the channel is never closed.
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("unexpected tree error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("tree did not shut down in time")
		}

		if control.stopCount.Load() == 0 {
			t.Error("control service was not stopped")
		}
		if api.stopCount.Load() == 0 {
			t.Error("api service was not stopped")
		}
	})

	t.Run("ServeBackground delivers the terminal error", func(t *testing.T) {
		tree := NewTree(testTreeLogger(), TreeConfig{ShutdownTimeout: time.Second})

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		errCh := tree.ServeBackground(ctx)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("did not receive from error channel")
		}
	})

	t.Run("unstopped service report is empty after clean shutdown", func(t *testing.T) {
		tree := NewTree(testTreeLogger(), TreeConfig{ShutdownTimeout: time.Second})
		tree.AddControlService(&stubService{name: "stub"})

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)

		time.Sleep(50 * time.Millisecond)
		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Fatal("tree did not shut down in time")
		}

		report, err := tree.UnstoppedServiceReport()
		if err != nil {
			t.Fatalf("unstopped service report: %v", err)
		}
		if len(report) != 0 {
			t.Errorf("expected empty report, got %d entries", len(report))
		}
	})
}
