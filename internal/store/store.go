// Package store persists race results and ghost recordings. Writes are
// fire-and-forget from the simulation's perspective: engines hand results
// over mid-frame and never wait on or learn about I/O failures, which are
// logged and swallowed here. Reads fall back to the in-memory cache when
// the disk copy is missing or unreadable.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"neon-rush/internal/game/drift"
)

const pendingBuffer = 256

// ResultRecord is one finished run/match/race, appended to the result log.
type ResultRecord struct {
	Time   time.Time `json:"time"`
	Mode   string    `json:"mode"`
	Player string    `json:"player"`
	Score  float64   `json:"score"`
	Detail string    `json:"detail,omitempty"`
}

// Store owns the data directory. One writer goroutine drains the pending
// queue so callers never block on disk.
type Store struct {
	dir string

	mu     sync.RWMutex
	ghosts map[string]*drift.Recording // Track ID -> cached best

	pending chan func()
	done    chan struct{}
	once    sync.Once
}

// New opens (creating if needed) the data directory and starts the writer.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", dir, err)
	}
	s := &Store{
		dir:     dir,
		ghosts:  make(map[string]*drift.Recording),
		pending: make(chan func(), pendingBuffer),
		done:    make(chan struct{}),
	}
	go s.writerLoop()
	return s, nil
}

func (s *Store) writerLoop() {
	for job := range s.pending {
		job()
	}
	close(s.done)
}

// enqueue hands a job to the writer, dropping it when the queue is full.
// Persistence never applies backpressure to a frame.
func (s *Store) enqueue(job func()) {
	select {
	case s.pending <- job:
	default:
		log.Printf("⚠️ Store queue full, dropping write")
	}
}

// Close drains outstanding writes and stops the writer.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.pending)
		<-s.done
	})
}

// SubmitResult appends a finished result to the mode's log. Asynchronous;
// failures are swallowed.
func (s *Store) SubmitResult(rec ResultRecord) {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	s.enqueue(func() {
		path := filepath.Join(s.dir, "results.jsonl")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("⚠️ Store: open result log: %v", err)
			return
		}
		defer f.Close()
		if err := json.NewEncoder(f).Encode(rec); err != nil {
			log.Printf("⚠️ Store: append result: %v", err)
		}
	})
}

// SaveGhost promotes a recording to the track's stored best. The cache
// updates synchronously so a follow-up read sees the new ghost even if the
// disk write later fails.
func (s *Store) SaveGhost(rec *drift.Recording) {
	if rec == nil || rec.TrackID == "" {
		return
	}

	s.mu.Lock()
	cur, ok := s.ghosts[rec.TrackID]
	if ok && cur.Total <= rec.Total {
		s.mu.Unlock()
		return
	}
	s.ghosts[rec.TrackID] = rec
	s.mu.Unlock()

	s.enqueue(func() {
		blob, err := msgpack.Marshal(rec)
		if err != nil {
			log.Printf("⚠️ Store: encode ghost %s: %v", rec.TrackID, err)
			return
		}
		path := s.ghostPath(rec.TrackID)
		if err := os.WriteFile(path, blob, 0o644); err != nil {
			log.Printf("⚠️ Store: write ghost %s: %v", rec.TrackID, err)
		}
	})
}

// BestGhost returns the stored best recording for a track: cache first,
// then disk. A missing or corrupt file is not an error, just no ghost.
func (s *Store) BestGhost(trackID string) (*drift.Recording, bool) {
	s.mu.RLock()
	if rec, ok := s.ghosts[trackID]; ok {
		s.mu.RUnlock()
		return rec, true
	}
	s.mu.RUnlock()

	blob, err := os.ReadFile(s.ghostPath(trackID))
	if err != nil {
		return nil, false
	}
	var rec drift.Recording
	if err := msgpack.Unmarshal(blob, &rec); err != nil {
		log.Printf("⚠️ Store: decode ghost %s: %v", trackID, err)
		return nil, false
	}

	s.mu.Lock()
	s.ghosts[trackID] = &rec
	s.mu.Unlock()
	return &rec, true
}

// Results reads back the full result log, newest last. Used by the API for
// recent-activity views; an absent log is an empty history.
func (s *Store) Results() ([]ResultRecord, error) {
	path := filepath.Join(s.dir, "results.jsonl")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: open result log: %w", err)
	}
	defer f.Close()

	var out []ResultRecord
	dec := json.NewDecoder(f)
	for dec.More() {
		var rec ResultRecord
		if err := dec.Decode(&rec); err != nil {
			// A torn tail line from a crashed writer is not fatal.
			log.Printf("⚠️ Store: torn result line: %v", err)
			break
		}
		out = append(out, rec)
	}
	return out, nil
}

// Flush blocks until every queued write has landed. Test hook.
func (s *Store) Flush() {
	donech := make(chan struct{})
	s.pending <- func() { close(donech) }
	<-donech
}

func (s *Store) ghostPath(trackID string) string {
	return filepath.Join(s.dir, "ghost_"+trackID+".msgpack")
}
