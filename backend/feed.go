// Package backend produces bar data for the charting engine: replayed CSV
// files (optionally tailed while they grow) and synthetic random walks. Each
// session runs its own producer goroutine and publishes cumulative state
// through a mutation pool, so UI consumers can subscribe late and still see
// the full dataset.
package backend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Bar is one parsed OHLCV record. TimeNS is unix nanoseconds.
type Bar struct {
	TimeNS int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Mode describes where a session's bars come from.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeReplaying
	ModeSynthetic
)

// Session is the accumulated state of one feed. A new value is published
// after every appended bar; Bars is cumulative and ordered by time.
type Session struct {
	ID   string
	Bars []Bar
	Mode Mode
	Err  error
}

// Feed owns the data sessions of the application.
type Feed struct {
	pool    *stream.MutationPool[string, Session]
	watcher *fsnotify.Watcher
	logger  *log.Logger
}

func NewFeed(mutator *stream.Mutator, logger *log.Logger) (*Feed, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed creating file watcher: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Feed{
		pool:    stream.NewMutationPool[string, Session](mutator),
		watcher: watcher,
		logger:  logger,
	}, nil
}

// SessionStream emits the set of live sessions whenever it changes.
func (f *Feed) SessionStream(ctx context.Context) <-chan map[string]*stream.Mutation[Session] {
	return f.pool.Stream(ctx)
}

// StreamSession emits every published state of one session.
func (f *Feed) StreamSession(ctx context.Context, sessionID string) <-chan Session {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	return (<-f.pool.Stream(subCtx))[sessionID].Stream(ctx)
}

// ReplayFile prompts for a bar file and replays it.
func (f *Feed) ReplayFile(expl *explorer.Explorer) (string, error) {
	file, err := expl.ChooseFile()
	if err != nil {
		return "", err
	}
	return f.ReplayStream(file, false), nil
}

// ReplayPath replays a bar file from disk, tailing it as it grows.
func (f *Feed) ReplayPath(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	if err := f.watcher.Add(path); err != nil {
		f.logger.Warn("cannot watch file for growth", "path", path, "err", err)
		return f.ReplayStream(file, false), nil
	}
	return f.ReplayStream(file, true), nil
}

// ReplayStream replays bars from an arbitrary reader. With follow set, EOF
// means "wait for the underlying file to grow" instead of "done".
func (f *Feed) ReplayStream(src io.ReadCloser, follow bool) string {
	id := generateSessionID()
	f.startSession(id, ModeReplaying, func(ctx context.Context, out chan<- Bar) error {
		defer src.Close()
		return f.readBars(ctx, src, out, follow)
	})
	return id
}

// Synthesize starts a session that emits one generated bar per tick.
func (f *Feed) Synthesize(gen *Generator, tick time.Duration) string {
	id := generateSessionID()
	f.startSession(id, ModeSynthetic, func(ctx context.Context, out chan<- Bar) error {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				select {
				case out <- gen.Next():
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return id
}

// startSession registers the session in the pool and pumps producer output
// into published states. Out-of-order bars are dropped here so downstream
// consumers always see a strictly increasing time sequence.
func (f *Feed) startSession(sessionID string, mode Mode, produce func(ctx context.Context, out chan<- Bar) error) {
	stream.Mutate(f.pool, sessionID, func(ctx context.Context) <-chan Session {
		out := make(chan Session, 1)
		go func() {
			defer close(out)
			session := Session{ID: sessionID, Mode: mode}
			out <- session

			bars := make(chan Bar, 1024)
			errs := make(chan error, 1)
			go func() {
				defer close(bars)
				if err := produce(ctx, bars); err != nil {
					errs <- err
				}
			}()
			for {
				select {
				case <-ctx.Done():
					return
				case err := <-errs:
					session.Err = err
					out <- session
					return
				case bar, ok := <-bars:
					if !ok {
						return
					}
					if n := len(session.Bars); n > 0 && bar.TimeNS <= session.Bars[n-1].TimeNS {
						f.logger.Warn("dropping out-of-order bar",
							"session", sessionID, "time", bar.TimeNS)
						continue
					}
					session.Bars = append(session.Bars, bar)
					out <- session
				}
			}
		}()
		return out
	})
}

// readBars parses `time_ns,open,high,low,close[,volume]` records. A header
// row is tolerated. The line reader underneath guarantees whole lines only,
// so a file caught mid-write never yields a truncated record.
func (f *Feed) readBars(ctx context.Context, src io.Reader, out chan<- Bar, follow bool) error {
	csvReader := csv.NewReader(NewLineReader(src))
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	first := true
	for {
		rec, err := csvReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if !follow || !f.awaitGrowth(ctx) {
					return nil
				}
				continue
			}
			return fmt.Errorf("failed reading bar data: %w", err)
		}
		bar, err := parseBar(rec)
		if err != nil {
			if first {
				// Header row.
				first = false
				continue
			}
			f.logger.Warn("skipping malformed record", "err", err)
			continue
		}
		first = false
		select {
		case out <- bar:
		case <-ctx.Done():
			return nil
		}
	}
}

// awaitGrowth blocks until a watched file receives a write.
func (f *Feed) awaitGrowth(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return false
			}
			if ev.Op.Has(fsnotify.Write) {
				return true
			}
		}
	}
}

func parseBar(rec []string) (Bar, error) {
	if len(rec) < 5 {
		return Bar{}, fmt.Errorf("record has %d fields, want at least 5", len(rec))
	}
	t, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return Bar{}, fmt.Errorf("bad timestamp %q: %w", rec[0], err)
	}
	var fields [5]float64
	for i, raw := range rec[1:] {
		if i >= len(fields) {
			break
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad value %q: %w", raw, err)
		}
		fields[i] = v
	}
	return Bar{
		TimeNS: t,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}

func generateSessionID() string {
	return strings.ReplaceAll(time.Now().UTC().Format("20060102150405.000000000"), ".", "")
}
