package mention

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ledgerFile is the name of the ledger file inside the data directory.
const ledgerFile = "processed_mentions.json"

// Record is the persisted ledger state: every mention GID that has already
// triggered a follow-up action, plus aggregate metadata for the file as a
// whole. The set only ever grows; there is no expiry yet.
type Record struct {
	ProcessedIDs   map[string]struct{}
	LastUpdated    *time.Time
	TotalProcessed int
}

// ledgerJSON is the on-disk form of a Record.
type ledgerJSON struct {
	ProcessedIDs   []string `json:"processed_ids"`
	LastUpdated    *string  `json:"last_updated"`
	TotalProcessed int      `json:"total_processed"`
}

// Ledger is the durable record of surfaced mentions. It assumes a single
// writer: reads and the read-modify-write in MarkProcessed are not locked
// against other processes.
type Ledger struct {
	path string
	log  *zap.Logger

	// rec caches the loaded record for FilterNew and MarkProcessed.
	rec *Record

	// now is swappable for tests.
	now func() time.Time
}

// NewLedger creates a Ledger persisting to dataDir/processed_mentions.json.
func NewLedger(dataDir string, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		path: filepath.Join(dataDir, ledgerFile),
		log:  log,
		now:  time.Now,
	}
}

// Path returns the ledger file's location.
func (l *Ledger) Path() string {
	return l.path
}

// Load reads the persisted record. A missing or unreadable file is treated
// as an empty ledger: it is logged and an empty record is returned, never
// an error. Losing the file only means outstanding mentions get surfaced
// again on the next run.
func (l *Ledger) Load() *Record {
	rec := l.read()
	l.rec = rec
	return rec
}

func (l *Ledger) read() *Record {
	empty := &Record{ProcessedIDs: make(map[string]struct{})}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.log.Error("reading mention ledger; treating as empty",
				zap.String("path", l.path),
				zap.Error(err),
			)
		}
		return empty
	}

	var raw ledgerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		l.log.Error("mention ledger is corrupt; treating as empty",
			zap.String("path", l.path),
			zap.Error(err),
		)
		return empty
	}

	rec := &Record{
		ProcessedIDs:   make(map[string]struct{}, len(raw.ProcessedIDs)),
		TotalProcessed: raw.TotalProcessed,
	}
	for _, id := range raw.ProcessedIDs {
		rec.ProcessedIDs[id] = struct{}{}
	}
	if raw.LastUpdated != nil {
		if t, err := time.Parse(time.RFC3339, *raw.LastUpdated); err == nil {
			rec.LastUpdated = &t
		}
	}
	return rec
}

// FilterNew returns the events whose mention IDs are not yet in the ledger,
// preserving input order. It never mutates persisted state, so calling it
// repeatedly without an intervening MarkProcessed yields the same subset.
func (l *Ledger) FilterNew(events []Event) []Event {
	rec := l.rec
	if rec == nil {
		rec = l.Load()
	}

	fresh := make([]Event, 0, len(events))
	for _, e := range events {
		if _, seen := rec.ProcessedIDs[e.ID()]; seen {
			l.log.Debug("skipping already-processed mention",
				zap.String("mention_gid", e.ID()),
			)
			continue
		}
		fresh = append(fresh, e)
	}

	if skipped := len(events) - len(fresh); skipped > 0 {
		l.log.Info("filtered already-processed mentions",
			zap.Int("skipped", skipped),
		)
	}
	return fresh
}

// MarkProcessed unions the events' mention IDs into the persisted set and
// atomically rewrites the ledger file with a fresh timestamp and count.
// It is a no-op for an empty id set. A write failure is returned to the
// caller: silently losing it would let the same mentions resurface as new
// despite the follow-up action having happened.
func (l *Ledger) MarkProcessed(events []Event) error {
	ids := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e.ID() != "" {
			ids[e.ID()] = struct{}{}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	rec := l.read()
	for id := range ids {
		rec.ProcessedIDs[id] = struct{}{}
	}
	now := l.now()
	rec.LastUpdated = &now
	rec.TotalProcessed = len(rec.ProcessedIDs)

	if err := l.write(rec); err != nil {
		return fmt.Errorf("persisting mention ledger: %w", err)
	}
	l.rec = rec

	l.log.Info("marked mentions as processed",
		zap.Int("new", len(ids)),
		zap.Int("total", rec.TotalProcessed),
	)
	return nil
}

// write replaces the ledger file in one unit via a temp file and rename.
func (l *Ledger) write(rec *Record) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	raw := ledgerJSON{
		ProcessedIDs:   make([]string, 0, len(rec.ProcessedIDs)),
		TotalProcessed: rec.TotalProcessed,
	}
	for id := range rec.ProcessedIDs {
		raw.ProcessedIDs = append(raw.ProcessedIDs, id)
	}
	if rec.LastUpdated != nil {
		s := rec.LastUpdated.Format(time.RFC3339)
		raw.LastUpdated = &s
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replacing %s: %w", l.path, err)
	}
	return nil
}
