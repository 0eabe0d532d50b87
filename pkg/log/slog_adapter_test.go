package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/consist-sim/consist-go/pkg/wire"
)

func logOne(t *testing.T, event Event) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	if buf.Len() == 0 {
		t.Fatal("no output produced")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func TestSlogAdapterLogsMessageEvent(t *testing.T) {
	entry := logOne(t, Event{
		Timestamp: time.Now(),
		SessionID: "sess-1",
		CarID:     "car-1",
		Direction: DirectionIn,
		Category:  CategoryMessage,
		Message: &MessageEvent{
			Namespace:   "Std_Coupler",
			Identifier:  "Sanding",
			Source:      wire.SourceRear,
			Subscribers: 2,
		},
	})

	want := map[string]any{
		"car":         "car-1",
		"session":     "sess-1",
		"direction":   "IN",
		"category":    "MESSAGE",
		"key":         "Std_Coupler/Sanding",
		"source":      wire.SourceRear.String(),
		"subscribers": float64(2),
		"level":       "DEBUG",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: got %v, want %v", k, entry[k], v)
		}
	}
}

func TestSlogAdapterOmitsSubscribersOnOut(t *testing.T) {
	entry := logOne(t, Event{
		CarID:     "car-1",
		Direction: DirectionOut,
		Category:  CategoryMessage,
		Message: &MessageEvent{
			Namespace:  "Std_Coupler",
			Identifier: "Sanding",
			Source:     wire.SourceSelf,
			Targets:    []string{"across:FRONT"},
		},
	})

	if _, ok := entry["subscribers"]; ok {
		t.Error("subscribers should not be logged for outgoing messages")
	}
	targets, ok := entry["targets"].([]any)
	if !ok || len(targets) != 1 || targets[0] != "across:FRONT" {
		t.Errorf("targets: got %v", entry["targets"])
	}
}

func TestSlogAdapterLogsStateChange(t *testing.T) {
	entry := logOne(t, Event{
		CarID:     "car-2",
		Direction: DirectionLocal,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityCoupling,
			Name:     "REAR",
			OldState: "uncoupled",
			NewState: "coupled",
			Reason:   "couple",
		},
	})

	if entry["entity"] != "COUPLING" {
		t.Errorf("entity: got %v", entry["entity"])
	}
	if entry["old_state"] != "uncoupled" || entry["new_state"] != "coupled" {
		t.Errorf("states: got %v -> %v", entry["old_state"], entry["new_state"])
	}
	if entry["reason"] != "couple" {
		t.Errorf("reason: got %v", entry["reason"])
	}
}

func TestSlogAdapterLogsErrorAtWarn(t *testing.T) {
	entry := logOne(t, Event{
		CarID:     "car-3",
		Direction: DirectionIn,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Kind:    ErrorKindDecode,
			Message: "cbor: cannot unmarshal",
			Context: "Std_Coupler/Reverser",
		},
	})

	if entry["level"] != "WARN" {
		t.Errorf("level: got %v, want WARN", entry["level"])
	}
	if entry["error_kind"] != "DECODE" {
		t.Errorf("error_kind: got %v", entry["error_kind"])
	}
	if entry["error_context"] != "Std_Coupler/Reverser" {
		t.Errorf("error_context: got %v", entry["error_context"])
	}
}

func TestSlogAdapterNilLoggerUsesDefault(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	if adapter.logger == nil {
		t.Fatal("expected default logger")
	}
}
