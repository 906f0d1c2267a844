package leaderboard

import (
	"sync"
	"time"
)

// Entry is one ranked line of a board.
type Entry struct {
	Player string  `json:"player"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}

// Board is one mode's ranking. Each player holds a single line: submits
// that do not improve on the stored score are dropped. Drift boards rank
// ascending (faster time wins); score boards rank descending.
type Board struct {
	mu          sync.RWMutex
	list        *skipList
	scores      map[string]float64
	lowerBetter bool
}

func NewBoard(lowerIsBetter bool) *Board {
	return &Board{
		list:        newSkipList(time.Now().UnixNano()),
		scores:      make(map[string]float64),
		lowerBetter: lowerIsBetter,
	}
}

// norm maps a raw score into descending skip-list order.
func (b *Board) norm(score float64) float64 {
	if b.lowerBetter {
		return -score
	}
	return score
}

// Submit records a result, keeping only each player's best. Reports whether
// the board changed.
func (b *Board) Submit(player string, score float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur, ok := b.scores[player]
	if ok && b.norm(score) <= b.norm(cur) {
		return false
	}
	if ok {
		b.list.remove(entry{key: player, score: b.norm(cur)})
	}
	b.list.insert(entry{key: player, score: b.norm(score)})
	b.scores[player] = score
	return true
}

// Rank returns a player's 1-indexed rank, 0 if absent. O(log n).
func (b *Board) Rank(player string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	score, ok := b.scores[player]
	if !ok {
		return 0
	}
	return b.list.rank(entry{key: player, score: b.norm(score)})
}

// Score returns a player's stored best.
func (b *Board) Score(player string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	score, ok := b.scores[player]
	return score, ok
}

// Top returns the best n entries in rank order.
func (b *Board) Top(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.denorm(b.list.rangeQuery(1, n), 1)
}

// Around returns the window of entries surrounding a player: up to `above`
// better-ranked lines, the player, and up to `below` worse-ranked lines.
func (b *Board) Around(player string, above, below int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	score, ok := b.scores[player]
	if !ok {
		return nil
	}
	rank := b.list.rank(entry{key: player, score: b.norm(score)})
	if rank == 0 {
		return nil
	}

	start := rank - above
	if start < 1 {
		start = 1
	}
	return b.denorm(b.list.rangeQuery(start, rank+below), start)
}

func (b *Board) denorm(entries []entry, startRank int) []Entry {
	result := make([]Entry, len(entries))
	for i, e := range entries {
		score := e.score
		if b.lowerBetter {
			score = -score
		}
		result[i] = Entry{Player: e.key, Score: score, Rank: startRank + i}
	}
	return result
}

// Len returns the number of ranked players.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.list.length
}

// Clear drops every entry.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.list.clear()
	b.scores = make(map[string]float64)
}

// Set bundles the per-mode boards.
type Set struct {
	boards map[string]*Board
}

// NewSet creates the standard three boards. Drift ranks by time, so lower
// is better there.
func NewSet() *Set {
	return &Set{boards: map[string]*Board{
		"runner":      NewBoard(false),
		"elimination": NewBoard(false),
		"drift":       NewBoard(true),
	}}
}

// Get returns the board for a mode.
func (s *Set) Get(mode string) (*Board, bool) {
	b, ok := s.boards[mode]
	return b, ok
}

// Modes lists the known board names.
func (s *Set) Modes() []string {
	modes := make([]string, 0, len(s.boards))
	for m := range s.boards {
		modes = append(modes, m)
	}
	return modes
}
