// Package journal records the actions applied to each match as compressed JSON lines
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/mcoot/conquestgame-go/internal/model"
)

// Outcome values for journal entries
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeIgnored  = "ignored"
)

// Entry is one journaled command
type Entry struct {
	At            time.Time        `json:"at"`
	MatchID       model.MatchID    `json:"matchId"`
	Version       uint64           `json:"version"`
	Kind          model.ActionKind `json:"kind"`
	PlayerID      model.PlayerID   `json:"playerId,omitempty"`
	Target        *model.Position  `json:"target,omitempty"`
	Structure     string           `json:"structure,omitempty"`
	Outcome       string           `json:"outcome"`
	Reason        string           `json:"reason,omitempty"`
	TimeRemaining int              `json:"timeRemaining"`
}

// NewEntry describes an action and the snapshot it produced
func NewEntry(at time.Time, m *model.Match, a model.Action, outcome string, reason error) Entry {
	e := Entry{
		At:            at,
		MatchID:       m.ID,
		Version:       m.Version,
		Kind:          a.Kind,
		PlayerID:      a.PlayerID,
		Structure:     string(a.Structure),
		Outcome:       outcome,
		TimeRemaining: m.TimeRemaining,
	}
	if a.Targeted() {
		target := a.Target
		e.Target = &target
	}
	if reason != nil {
		e.Reason = reason.Error()
	}
	return e
}

// Recorder receives journal entries for one match
type Recorder interface {
	Record(e Entry) error
	Close() error
}

// Opener creates the recorder for a match
type Opener interface {
	Open(id model.MatchID) (Recorder, error)
}

// Nop discards every entry
type Nop struct{}

func (Nop) Record(Entry) error                   { return nil }
func (Nop) Close() error                         { return nil }
func (Nop) Open(model.MatchID) (Recorder, error) { return Nop{}, nil }

// Dir writes one journal file per match into a directory
type Dir struct {
	path string
}

// NewDir creates a Dir opener, creating the directory if needed
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return &Dir{path: path}, nil
}

// PathFor returns the journal file for a match
func (d *Dir) PathFor(id model.MatchID) string {
	return filepath.Join(d.path, fmt.Sprintf("%s.jsonl.zst", id))
}

// Open creates the journal file for a match
func (d *Dir) Open(id model.MatchID) (Recorder, error) {
	f, err := os.OpenFile(d.PathFor(id), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return NewWriter(f)
}

// Writer is a zstd-compressed JSONL recorder
type Writer struct {
	mu  sync.Mutex
	out io.WriteCloser
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewWriter compresses entries into out. Closing the writer closes out.
func NewWriter(out io.WriteCloser) (*Writer, error) {
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithZeroFrames(true))
	if err != nil {
		_ = out.Close()
		return nil, err
	}
	return &Writer{
		out: out,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 32*1024),
	}, nil
}

// Record appends an entry
func (w *Writer) Record(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return os.ErrClosed
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Close flushes and closes the journal
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}

	flushErr := w.w.Flush()
	encErr := w.enc.Close()
	outErr := w.out.Close()
	w.w = nil

	for _, err := range []error{flushErr, encErr, outErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadAll decodes every entry from a compressed journal stream
func ReadAll(r io.Reader) ([]Entry, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var entries []Entry
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", len(entries)+1, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadFile decodes a journal file
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAll(f)
}
