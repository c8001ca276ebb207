// Package export flattens a directory of persisted records into the CSV
// layout consumed by downstream tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/offlinefirst/inputtrail/pkg/events"
	"github.com/offlinefirst/inputtrail/pkg/logging"
)

// Header is the first CSV row.
var Header = []string{"record timestamp", "client timestamp", "button", "state", "x", "y"}

// Record is one persisted JSON file.
type Record struct {
	Stamp  int64
	Path   string
	Events []events.Event
}

// Row is one CSV line. Timestamps are whole seconds since the epoch.
type Row struct {
	RecordTime int64
	ClientTime int64
	Button     string
	State      string
	X, Y       int
}

func (r Row) strings() []string {
	return []string{
		strconv.FormatInt(r.RecordTime, 10),
		strconv.FormatInt(r.ClientTime, 10),
		r.Button,
		r.State,
		strconv.Itoa(r.X),
		strconv.Itoa(r.Y),
	}
}

// ReadRecords loads every {stamp}.json file in dir ordered by stamp. Files
// that do not decode are logged and skipped.
func ReadRecords(dir string, logger *slog.Logger) ([]Record, error) {
	logger = logging.OrDiscard(logger)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		stamp, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		path := filepath.Join(dir, name)
		evs, err := readRecord(path)
		if err != nil {
			logger.Warn("skipping unreadable record", "path", path, "error", err)
			continue
		}
		records = append(records, Record{Stamp: stamp, Path: path, Events: evs})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Stamp < records[j].Stamp })
	return records, nil
}

func readRecord(path string) ([]events.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var evs []events.Event
		if err := json.Unmarshal(data, &evs); err != nil {
			return nil, err
		}
		return evs, nil
	}
	var ev events.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return []events.Event{ev}, nil
}

// Rows converts records into CSV rows. Pointer motion becomes Move, or Drag
// while a button is held; presses and releases reuse the last known
// position. Keyboard and wheel events have no CSV form and are dropped. A
// pointer sample repeated across consecutive records is emitted once.
func Rows(records []Record) []Row {
	var (
		rows     []Row
		x, y     int
		pressed  bool
		lastMove events.Event
		haveMove bool
	)
	for _, rec := range records {
		recordSecs := rec.Stamp / 1000
		for _, ev := range rec.Events {
			clientSecs := ev.Time.Unix()
			switch ev.Kind {
			case events.KindMouseMove:
				if haveMove && ev.Time.Equal(lastMove.Time) && ev.X == lastMove.X && ev.Y == lastMove.Y {
					continue
				}
				lastMove, haveMove = ev, true
				x, y = int(ev.X), int(ev.Y)
				state := "Move"
				if pressed {
					state = "Drag"
				}
				rows = append(rows, Row{recordSecs, clientSecs, "NoButton", state, x, y})
			case events.KindButtonPress:
				pressed = true
				rows = append(rows, Row{recordSecs, clientSecs, buttonLabel(ev.Button), "Pressed", x, y})
			case events.KindButtonRelease:
				pressed = false
				rows = append(rows, Row{recordSecs, clientSecs, buttonLabel(ev.Button), "Released", x, y})
			case events.KindKeyPress, events.KindKeyRelease, events.KindWheel:
			}
		}
	}
	return rows
}

func buttonLabel(b events.Button) string {
	switch b {
	case events.ButtonLeft:
		return "Left"
	case events.ButtonRight:
		return "Right"
	case events.ButtonMiddle:
		return "Scroll"
	default:
		return string(b)
	}
}

// WriteCSV writes the header followed by rows.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary reports what an export produced.
type Summary struct {
	Records int
	Rows    int
}

// Directory exports every record under dir to w.
func Directory(dir string, w io.Writer, logger *slog.Logger) (Summary, error) {
	records, err := ReadRecords(dir, logger)
	if err != nil {
		return Summary{}, err
	}
	rows := Rows(records)
	if err := WriteCSV(w, rows); err != nil {
		return Summary{}, fmt.Errorf("write csv: %w", err)
	}
	return Summary{Records: len(records), Rows: len(rows)}, nil
}
