package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/consist-sim/consist-go/pkg/log"
	"github.com/consist-sim/consist-go/pkg/wire"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+log.FileExtension)

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func payload(t *testing.T, v any) []byte {
	t.Helper()
	b, err := cbor.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func sampleEvents(t *testing.T) []log.Event {
	ts := time.Date(2026, 3, 4, 10, 15, 32, 0, time.UTC)
	return []log.Event{
		{
			Timestamp: ts, SessionID: "s1", CarID: "A", Direction: log.DirectionOut, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Namespace: "Std_TrainBus", Identifier: "sanding", Source: wire.SourceSelf,
				Targets: []string{"across:REAR+cascade"}, Payload: payload(t, true)},
		},
		{
			Timestamp: ts.Add(time.Millisecond), SessionID: "s1", CarID: "B", Direction: log.DirectionIn, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Namespace: "Std_TrainBus", Identifier: "sanding", Source: wire.SourceFront,
				Payload: payload(t, true), Subscribers: 1},
		},
		{
			Timestamp: ts.Add(2 * time.Millisecond), SessionID: "s1", CarID: "B", Direction: log.DirectionIn, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Namespace: "Std_Pis", Identifier: "routing_code", Source: wire.SourceSelf,
				Payload: payload(t, 815)},
		},
		{
			Timestamp: ts.Add(3 * time.Millisecond), SessionID: "s1", CarID: "B", Direction: log.DirectionLocal, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityLine, Name: "Std_TrainBus/sanding", OldState: "false", NewState: "true"},
		},
		{
			Timestamp: ts.Add(4 * time.Millisecond), SessionID: "s1", CarID: "C", Direction: log.DirectionLocal, Category: log.CategoryError,
			Error: &log.ErrorEventData{Kind: log.ErrorKindRouting, Message: "not coupled", Context: "across:FRONT"},
		},
	}
}

func TestViewFormatsEvents(t *testing.T) {
	path := createTestLogFile(t, sampleEvents(t))

	var buf bytes.Buffer
	if err := RunView(path, log.Filter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"2026-03-04T10:15:32.000000Z [A] OUT   Std_TrainBus/sanding",
		"Targets: across:REAR+cascade",
		"Payload: true",
		"Subscribers: 1",
		"Subscribers: none (dropped)",
		"Payload: 815",
		"Entity: LINE Std_TrainBus/sanding",
		"State: false -> true",
		"Kind: ROUTING",
		"Context: across:FRONT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestViewAppliesFilter(t *testing.T) {
	path := createTestLogFile(t, sampleEvents(t))

	filter, err := FilterOptions{CarID: "B", Direction: "in"}.Build()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := RunView(path, filter, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "[A]") || strings.Contains(out, "State:") {
		t.Errorf("filter leaked events:\n%s", out)
	}
	if got := strings.Count(out, "[B] IN"); got != 2 {
		t.Errorf("got %d IN events on B, want 2", got)
	}
}

func TestFilterOptionsBuild(t *testing.T) {
	tests := []struct {
		name    string
		opts    FilterOptions
		wantErr bool
	}{
		{"empty", FilterOptions{}, false},
		{"all set", FilterOptions{SessionID: "s", CarID: "A", Namespace: "Std_Pis", Direction: "OUT", Category: "state",
			TimeStart: "2026-03-04T10:00:00Z", TimeEnd: "2026-03-04T11:00:00Z"}, false},
		{"bad direction", FilterOptions{Direction: "sideways"}, true},
		{"bad category", FilterOptions{Category: "control"}, true},
		{"bad time", FilterOptions{TimeStart: "yesterday"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Build()
			if (err != nil) != tt.wantErr {
				t.Errorf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunFilterWritesMatchingEvents(t *testing.T) {
	path := createTestLogFile(t, sampleEvents(t))
	out := filepath.Join(t.TempDir(), "filtered"+log.FileExtension)

	n, err := RunFilter(path, out, FilterOptions{Namespace: "Std_TrainBus"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("wrote %d events, want 2", n)
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	events, err := reader.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("read %d events, want 2", len(events))
	}
	for _, e := range events {
		if e.Message == nil || e.Message.Namespace != "Std_TrainBus" {
			t.Errorf("unexpected event %+v", e)
		}
	}
}

func TestStats(t *testing.T) {
	path := createTestLogFile(t, sampleEvents(t))

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Total Events: 5",
		"Sessions:     1",
		"MESSAGE:",
		"STATE:",
		"ERROR:",
		"LOCAL:",
		"Std_TrainBus/sanding",
		"[A] published 1, dispatched 0, state changes 0",
		"[B] published 0, dispatched 2, state changes 1",
		"Dropped: 1",
		"ROUTING:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestExportJSONL(t *testing.T) {
	path := createTestLogFile(t, sampleEvents(t))
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if err := Export(reader, "jsonl", &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first["CarID"] != "A" {
		t.Errorf("CarID = %v, want A", first["CarID"])
	}
}

func TestExportCSV(t *testing.T) {
	path := createTestLogFile(t, sampleEvents(t))
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if err := Export(reader, "csv", &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}
	if rows[0][0] != "timestamp" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[2][5] != "Std_TrainBus/sanding" || rows[2][6] != "FRONT" || rows[2][7] != "1" {
		t.Errorf("row 2 = %v", rows[2])
	}
	if rows[5][8] != "ROUTING: not coupled" {
		t.Errorf("row 5 detail = %q", rows[5][8])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sampleEvents(t))
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	if err := Export(reader, "xml", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
