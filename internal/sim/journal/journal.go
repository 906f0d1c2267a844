package journal

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	BufferSize         = 1024                   // Ring capacity (entries)
	MaxEntriesPerSec   = 10000                  // Global rate limit
	MaxEntriesPerRun   = 200                    // Per-run rate limit per second
	BatchFlushSize     = 64                     // Entries per batch write
	BatchFlushInterval = 100 * time.Millisecond // How often to flush
	RunLimiterCleanup  = 5 * time.Minute        // Sweep interval for run limiters
)

// Journal is a bounded, rate-limited entry log with an async disk writer.
//
// Producers append to a ring without ever waiting: `produced` counts entries
// written since start, and entry N lives in slot (N-1) mod BufferSize. The
// single writer goroutine trails behind with `consumed`. When producers lap
// the writer, the overwritten entries are simply gone; the writer detects the
// gap on its next drain and accounts for it as drops. Diagnostics are
// best-effort by contract, so a torn read on a just-lapped slot is acceptable
// where stalling a simulation frame is not.
type Journal struct {
	buffer   [BufferSize]Entry
	produced uint64 // atomic - entries accepted
	consumed uint64 // atomic - entries handed to the writer

	globalLimiter *rate.Limiter
	runLimiters   sync.Map // map[string]*runLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
}

type runLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// New creates a journal. Call Start to begin the writer.
func New() *Journal {
	return &Journal{
		globalLimiter: rate.NewLimiter(MaxEntriesPerSec, MaxEntriesPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the async writer. An empty filePath keeps the journal
// in-memory only (entries still count for stats).
func (j *Journal) Start(filePath string) error {
	if j.running.Load() {
		return nil
	}

	j.filePath = filePath

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		j.file = file
	}

	j.running.Store(true)
	j.writerWg.Add(1)
	go j.writerLoop()

	return nil
}

// Stop gracefully shuts down the journal, flushing pending entries.
func (j *Journal) Stop() {
	j.stopOnce.Do(func() {
		j.running.Store(false)
		close(j.stopChan)
		j.writerWg.Wait()

		j.fileMu.Lock()
		if j.file != nil {
			j.file.Close()
		}
		j.fileMu.Unlock()
	})
}

// Record adds an entry, applying rate limits. Returns false if the entry was
// dropped (rate limited or journal stopped).
func (j *Journal) Record(entry Entry) bool {
	if !j.running.Load() {
		return false
	}

	if !j.globalLimiter.Allow() {
		atomic.AddUint64(&j.droppedCount, 1)
		return false
	}

	// Per-run limit keeps one noisy run from crowding out the others.
	if entry.RunID != "" {
		limiter := j.limiterFor(entry.RunID)
		if !limiter.Allow() {
			atomic.AddUint64(&j.droppedCount, 1)
			return false
		}
	}

	// Sequence N occupies slot (N-1) mod BufferSize; the first entry lands
	// in slot 0.
	seq := atomic.AddUint64(&j.produced, 1)
	entry.Sequence = seq
	j.buffer[(seq-1)%BufferSize] = entry

	atomic.AddUint64(&j.totalCount, 1)
	return true
}

// RecordSimple builds and records an entry in one call.
func (j *Journal) RecordSimple(entryType EntryType, frame uint64, runID string, payload interface{}) bool {
	return j.Record(NewEntry(entryType, frame, runID, payload))
}

func (j *Journal) limiterFor(runID string) *rate.Limiter {
	if entry, ok := j.runLimiters.Load(runID); ok {
		e := entry.(*runLimiterEntry)
		e.lastUsed = time.Now()
		return e.limiter
	}

	entry := &runLimiterEntry{
		limiter:  rate.NewLimiter(MaxEntriesPerRun, MaxEntriesPerRun/10),
		lastUsed: time.Now(),
	}
	actual, _ := j.runLimiters.LoadOrStore(runID, entry)
	return actual.(*runLimiterEntry).limiter
}

// writerLoop owns the consumer side: periodic batch flushes, the stale
// limiter sweep, and a complete drain on shutdown.
func (j *Journal) writerLoop() {
	defer j.writerWg.Done()

	flush := time.NewTicker(BatchFlushInterval)
	defer flush.Stop()
	sweep := time.NewTicker(RunLimiterCleanup)
	defer sweep.Stop()

	batch := make([]Entry, 0, BatchFlushSize)

	for {
		select {
		case <-j.stopChan:
			// Drain everything still buffered before the file closes.
			for {
				batch = j.drain(batch[:0])
				if len(batch) == 0 {
					return
				}
				j.writeOut(batch)
			}

		case <-flush.C:
			batch = j.drain(batch[:0])
			if len(batch) > 0 {
				j.writeOut(batch)
			}

		case <-sweep.C:
			j.dropStaleRunLimiters()
		}
	}
}

func (j *Journal) dropStaleRunLimiters() {
	cutoff := time.Now().Add(-RunLimiterCleanup)
	j.runLimiters.Range(func(key, value interface{}) bool {
		entry := value.(*runLimiterEntry)
		if entry.lastUsed.Before(cutoff) {
			j.runLimiters.Delete(key)
		}
		return true
	})
}

// drain copies up to one batch of pending entries, oldest first. If the
// producers lapped the ring since the last drain, the gap is counted as
// dropped and reading resumes at the oldest surviving entry.
func (j *Journal) drain(batch []Entry) []Entry {
	produced := atomic.LoadUint64(&j.produced)
	consumed := atomic.LoadUint64(&j.consumed)
	if consumed == produced {
		return batch
	}

	if produced-consumed > BufferSize {
		skipped := produced - consumed - BufferSize
		atomic.AddUint64(&j.droppedCount, skipped)
		consumed = produced - BufferSize
	}

	for consumed < produced && len(batch) < BatchFlushSize {
		batch = append(batch, j.buffer[consumed%BufferSize])
		consumed++
	}

	atomic.StoreUint64(&j.consumed, consumed)
	return batch
}

// writeOut appends entries as newline-delimited JSON.
func (j *Journal) writeOut(batch []Entry) {
	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	if j.file == nil {
		return
	}

	for _, entry := range batch {
		data, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		j.file.Write(data)
		j.file.Write([]byte("\n"))
	}
}

// Stats returns counters for monitoring. Pending is clamped to the ring
// capacity: anything beyond it has already been overwritten.
func (j *Journal) Stats() map[string]interface{} {
	produced := atomic.LoadUint64(&j.produced)
	consumed := atomic.LoadUint64(&j.consumed)

	pending := produced - consumed
	if pending > BufferSize {
		pending = BufferSize
	}

	return map[string]interface{}{
		"total":   atomic.LoadUint64(&j.totalCount),
		"dropped": atomic.LoadUint64(&j.droppedCount),
		"pending": pending,
		"running": j.running.Load(),
	}
}

// DroppedCount returns the number of dropped entries.
func (j *Journal) DroppedCount() uint64 {
	return atomic.LoadUint64(&j.droppedCount)
}

// TotalCount returns the total number of entries accepted.
func (j *Journal) TotalCount() uint64 {
	return atomic.LoadUint64(&j.totalCount)
}
