package leaderboard

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
)

func TestSubmitKeepsBestOnly(t *testing.T) {
	b := NewBoard(false)

	if !b.Submit("dash", 100) {
		t.Fatal("first submit must change the board")
	}
	if b.Submit("dash", 80) {
		t.Error("worse score must be dropped")
	}
	if !b.Submit("dash", 150) {
		t.Error("better score must replace")
	}

	if score, _ := b.Score("dash"); score != 150 {
		t.Errorf("score = %v, want 150", score)
	}
	if b.Len() != 1 {
		t.Errorf("len = %d, one player holds one line", b.Len())
	}
}

func TestRankingOrderAndTies(t *testing.T) {
	b := NewBoard(false)
	b.Submit("volt", 300)
	b.Submit("nova", 500)
	b.Submit("jinx", 300)
	b.Submit("rex", 100)

	top := b.Top(10)
	want := []string{"nova", "jinx", "volt", "rex"} // ties break by name
	if len(top) != len(want) {
		t.Fatalf("top = %d entries, want %d", len(top), len(want))
	}
	for i, e := range top {
		if e.Player != want[i] || e.Rank != i+1 {
			t.Errorf("top[%d] = %+v, want %s at rank %d", i, e, want[i], i+1)
		}
	}

	if r := b.Rank("jinx"); r != 2 {
		t.Errorf("jinx rank = %d, want 2", r)
	}
	if r := b.Rank("ghost"); r != 0 {
		t.Errorf("unknown player rank = %d, want 0", r)
	}
}

func TestLowerIsBetterBoard(t *testing.T) {
	b := NewBoard(true)
	b.Submit("dash", 92.4) // race times in seconds
	b.Submit("volt", 88.1)
	b.Submit("nova", 101.7)

	top := b.Top(3)
	if top[0].Player != "volt" || top[0].Score != 88.1 {
		t.Errorf("fastest time must rank first, got %+v", top[0])
	}
	if top[2].Player != "nova" {
		t.Errorf("slowest time must rank last, got %+v", top[2])
	}

	// A slower run must not displace the stored time.
	if b.Submit("volt", 95.0) {
		t.Error("slower time accepted")
	}
	if b.Submit("volt", 80.0) == false {
		t.Error("faster time rejected")
	}
}

func TestAroundWindow(t *testing.T) {
	b := NewBoard(false)
	for i := 1; i <= 20; i++ {
		b.Submit(fmt.Sprintf("p%02d", i), float64(i*10))
	}

	// p10 scored 100: ranks 11th of 20.
	window := b.Around("p10", 2, 2)
	if len(window) != 5 {
		t.Fatalf("window = %d entries, want 5", len(window))
	}
	if window[2].Player != "p10" || window[2].Rank != 11 {
		t.Errorf("center = %+v, want p10 at rank 11", window[2])
	}
	if window[0].Rank != 9 || window[4].Rank != 13 {
		t.Errorf("window spans ranks %d..%d, want 9..13", window[0].Rank, window[4].Rank)
	}

	// Top player: nothing above, window clips.
	window = b.Around("p20", 3, 1)
	if len(window) != 2 || window[0].Player != "p20" || window[0].Rank != 1 {
		t.Errorf("clipped window = %+v", window)
	}

	if b.Around("ghost", 1, 1) != nil {
		t.Error("unknown player must yield no window")
	}
}

// TestRanksAgainstReference drives the skip list with random submits and
// checks every rank against a plain sorted slice.
func TestRanksAgainstReference(t *testing.T) {
	b := NewBoard(false)
	rng := rand.New(rand.NewSource(7))

	ref := map[string]float64{}
	for i := 0; i < 500; i++ {
		player := fmt.Sprintf("p%03d", rng.Intn(120))
		score := float64(rng.Intn(10000))
		b.Submit(player, score)
		if cur, ok := ref[player]; !ok || score > cur {
			ref[player] = score
		}
	}

	type line struct {
		player string
		score  float64
	}
	sorted := make([]line, 0, len(ref))
	for p, s := range ref {
		sorted = append(sorted, line{p, s})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].score != sorted[j].score {
			return sorted[i].score > sorted[j].score
		}
		return sorted[i].player < sorted[j].player
	})

	if b.Len() != len(sorted) {
		t.Fatalf("len = %d, reference has %d", b.Len(), len(sorted))
	}
	for i, l := range sorted {
		if r := b.Rank(l.player); r != i+1 {
			t.Errorf("rank(%s) = %d, want %d", l.player, r, i+1)
		}
	}

	top := b.Top(len(sorted))
	for i, e := range top {
		if e.Player != sorted[i].player {
			t.Errorf("top[%d] = %s, want %s", i, e.Player, sorted[i].player)
		}
	}
}

func TestClear(t *testing.T) {
	b := NewBoard(false)
	b.Submit("dash", 10)
	b.Submit("volt", 20)
	b.Clear()

	if b.Len() != 0 || b.Rank("dash") != 0 || len(b.Top(5)) != 0 {
		t.Error("clear must drop every entry")
	}

	// The board stays usable after a clear.
	b.Submit("nova", 5)
	if b.Rank("nova") != 1 {
		t.Error("submit after clear broken")
	}
}

func TestSetModes(t *testing.T) {
	s := NewSet()
	for _, mode := range []string{"runner", "elimination", "drift"} {
		if _, ok := s.Get(mode); !ok {
			t.Errorf("missing board for %s", mode)
		}
	}
	if _, ok := s.Get("bingo"); ok {
		t.Error("unknown mode must not resolve")
	}
	if len(s.Modes()) != 3 {
		t.Errorf("modes = %v", s.Modes())
	}
}
