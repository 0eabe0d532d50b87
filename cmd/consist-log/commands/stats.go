package commands

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/consist-sim/consist-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	EventsByKey       map[string]int
	Cars              map[string]*CarStats
	Sessions          map[string]bool
	Dropped           int
	Errors            map[log.ErrorKind]int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// CarStats holds statistics for a single car.
type CarStats struct {
	Published    int
	Dispatched   int
	StateChanges int
}

// Collect reads every event from reader into a Stats.
func Collect(reader *log.Reader) (*Stats, error) {
	stats := &Stats{
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		EventsByKey:       make(map[string]int),
		Cars:              make(map[string]*CarStats),
		Sessions:          make(map[string]bool),
		Errors:            make(map[log.ErrorKind]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++
		if event.SessionID != "" {
			stats.Sessions[event.SessionID] = true
		}

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		car, ok := stats.Cars[event.CarID]
		if !ok {
			car = &CarStats{}
			stats.Cars[event.CarID] = car
		}

		switch {
		case event.Message != nil:
			stats.EventsByKey[event.Message.Key().String()]++
			if event.Direction == log.DirectionOut {
				car.Published++
			} else {
				car.Dispatched++
				if event.Message.Subscribers == 0 {
					stats.Dropped++
				}
			}
		case event.StateChange != nil:
			car.StateChanges++
		case event.Error != nil:
			stats.Errors[event.Error.Kind]++
		}
	}
	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats, err := Collect(reader)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Consist Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Sessions:     %d\n", len(stats.Sessions))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut, log.DirectionLocal} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.EventsByKey) > 0 {
		fmt.Fprintln(w, "Messages by Key:")
		keys := make([]string, 0, len(stats.EventsByKey))
		for k := range stats.EventsByKey {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-32s %d\n", k, stats.EventsByKey[k])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Cars: %d\n", len(stats.Cars))
	names := make([]string, 0, len(stats.Cars))
	for name := range stats.Cars {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c := stats.Cars[name]
		fmt.Fprintf(w, "  [%s] published %d, dispatched %d, state changes %d\n",
			name, c.Published, c.Dispatched, c.StateChanges)
	}

	if stats.Dropped > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Dropped: %d\n", stats.Dropped)
	}

	total := 0
	for _, n := range stats.Errors {
		total += n
	}
	if total > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", total)
		for _, k := range []log.ErrorKind{log.ErrorKindDecode, log.ErrorKindTransport, log.ErrorKindRouting, log.ErrorKindSettle} {
			if n := stats.Errors[k]; n > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", k.String()+":", n)
			}
		}
	}
}
