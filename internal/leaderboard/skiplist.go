// Package leaderboard ranks arcade results with a span-augmented skip list,
// giving O(log n) submits and rank queries over thousands of players.
//
// Origin: Pugh (1990), "Skip Lists: A Probabilistic Alternative to Balanced
// Trees". Redis ZSET uses the same span trick for rank lookups.
package leaderboard

import "math/rand"

const (
	maxLevel  = 32
	levelProb = 0.25
)

// entry orders by score descending, key ascending on ties. Every traversal
// compares full (score, key) pairs, so callers must supply the stored score
// when removing or ranking a key.
type entry struct {
	key   string
	score float64
}

func (e entry) before(o entry) bool {
	if e.score != o.score {
		return e.score > o.score
	}
	return e.key < o.key
}

type node struct {
	entry entry
	next  []*node // Forward pointers, one per level
	span  []int   // Distance to next node at each level
}

type skipList struct {
	head   *node
	level  int
	length int
	rng    *rand.Rand
}

func newSkipList(seed int64) *skipList {
	return &skipList{
		head: &node{
			next: make([]*node, maxLevel),
			span: make([]int, maxLevel),
		},
		level: 1,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// randomLevel draws a geometric height in [1, maxLevel].
func (sl *skipList) randomLevel() int {
	level := 1
	for level < maxLevel && sl.rng.Float64() < levelProb {
		level++
	}
	return level
}

// insert adds e, keeping span counts exact. Duplicate entries are the
// caller's problem; the wrapping board removes the old score first.
func (sl *skipList) insert(e entry) {
	var update [maxLevel]*node
	var rank [maxLevel]int

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		if i == sl.level-1 {
			rank[i] = 0
		} else {
			rank[i] = rank[i+1]
		}
		for x.next[i] != nil && x.next[i].entry.before(e) {
			rank[i] += x.span[i]
			x = x.next[i]
		}
		update[i] = x
	}

	newLevel := sl.randomLevel()
	if newLevel > sl.level {
		for i := sl.level; i < newLevel; i++ {
			rank[i] = 0
			update[i] = sl.head
			update[i].span[i] = sl.length
		}
		sl.level = newLevel
	}

	n := &node{
		entry: e,
		next:  make([]*node, newLevel),
		span:  make([]int, newLevel),
	}
	for i := 0; i < newLevel; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
		n.span[i] = update[i].span[i] - (rank[0] - rank[i])
		update[i].span[i] = (rank[0] - rank[i]) + 1
	}
	for i := newLevel; i < sl.level; i++ {
		update[i].span[i]++
	}
	sl.length++
}

// remove deletes the exact (score, key) entry.
func (sl *skipList) remove(e entry) bool {
	var update [maxLevel]*node

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && x.next[i].entry.before(e) {
			x = x.next[i]
		}
		update[i] = x
	}

	x = x.next[0]
	if x == nil || x.entry != e {
		return false
	}

	for i := 0; i < sl.level; i++ {
		if update[i].next[i] == x {
			update[i].span[i] += x.span[i] - 1
			update[i].next[i] = x.next[i]
		} else {
			update[i].span[i]--
		}
	}
	for sl.level > 1 && sl.head.next[sl.level-1] == nil {
		sl.level--
	}
	sl.length--
	return true
}

// rank returns the 1-indexed rank of the exact entry, 0 if absent.
func (sl *skipList) rank(e entry) int {
	r := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && !e.before(x.next[i].entry) {
			r += x.span[i]
			x = x.next[i]
			if x.entry == e {
				return r
			}
		}
	}
	return 0
}

// rangeQuery returns entries in rank order over [start, end], 1-indexed
// inclusive. O(log n + k).
func (sl *skipList) rangeQuery(start, end int) []entry {
	if start <= 0 {
		start = 1
	}
	if end > sl.length {
		end = sl.length
	}
	if start > end {
		return nil
	}

	traversed := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && traversed+x.span[i] < start {
			traversed += x.span[i]
			x = x.next[i]
		}
	}

	result := make([]entry, 0, end-start+1)
	x = x.next[0]
	for x != nil && traversed < end {
		traversed++
		if traversed >= start {
			result = append(result, x.entry)
		}
		x = x.next[0]
	}
	return result
}

func (sl *skipList) clear() {
	for i := range sl.head.next {
		sl.head.next[i] = nil
		sl.head.span[i] = 0
	}
	sl.level = 1
	sl.length = 0
}
