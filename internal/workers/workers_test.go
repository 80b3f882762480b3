// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"testing"
)

// recordingWorker is a test implementation of the Worker interface that
// appends its id to a shared log on Start and Stop.
type recordingWorker struct {
	id  int
	log *[]string
}

func (w *recordingWorker) Start(context.Context) {
	*w.log = append(*w.log, "start", string(rune('0'+w.id)))
}

func (w *recordingWorker) Stop() {
	*w.log = append(*w.log, "stop", string(rune('0'+w.id)))
}

func TestWorkers_StartAndStopOrder(t *testing.T) {
	var log []string
	ws := NewWorkers(
		&recordingWorker{id: 1, log: &log},
		&recordingWorker{id: 2, log: &log},
		&recordingWorker{id: 3, log: &log},
	)

	ws.Start(context.Background())
	ws.Stop()

	expected := []string{
		"start", "1", "start", "2", "start", "3",
		"stop", "3", "stop", "2", "stop", "1",
	}
	if len(log) != len(expected) {
		t.Fatalf("expected %d entries, got %d: %v", len(expected), len(log), log)
	}
	for i, v := range expected {
		if log[i] != v {
			t.Errorf("expected log[%d]=%q, got %q", i, v, log[i])
		}
	}
}

func TestWorkers_Empty(t *testing.T) {
	ws := NewWorkers()

	// Should not panic on empty workers list
	ws.Start(context.Background())
	ws.Stop()
}

func TestWorkers_Nil(t *testing.T) {
	ws := &Workers{}

	// Should not panic when workers field is nil
	ws.Start(context.Background())
	ws.Stop()
}
