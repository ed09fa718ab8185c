package pairing

import (
	"math/rand"
	"sort"
	"strings"
	"time"
)

// History is the set of unordered pairs already matched in a session, keyed
// by Key. It must span the full session, not just the previous round.
type History map[string]bool

// Key returns the canonical map key for an unordered user pair.
func Key(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// HistoryFrom builds a History from (user1, user2) pairs.
func HistoryFrom(pairs [][2]string) History {
	h := make(History, len(pairs))
	for _, p := range pairs {
		h[Key(p[0], p[1])] = true
	}
	return h
}

// Pair is one proposed match for the next round.
type Pair struct {
	User1ID     string `json:"user1Id"`
	User2ID     string `json:"user2Id"`
	MatchNumber int    `json:"matchNumber"`
	Color       string `json:"matchColor"`

	// ForcedRepeat marks the single fallback pair allowed when the
	// remaining participants have already all met each other.
	ForcedRepeat bool `json:"forcedRepeat,omitempty"`
}

// Result is the outcome of an automatic pairing computation. LeftOver
// normally holds at most one id (the sit-out when the count is odd); extra
// entries mean the no-repeat constraint made some participants unpairable
// even after the forced-repeat fallback.
type Result struct {
	Pairs    []Pair   `json:"pairs"`
	LeftOver []string `json:"leftOver,omitempty"`
}

// Engine computes round pairings. It is pure computation: callers load
// participants and history, the engine never touches I/O.
type Engine struct {
	rng      *rand.Rand
	attempts int
}

func NewEngine() *Engine {
	return NewEngineWithSeed(time.Now().UnixNano())
}

// NewEngineWithSeed returns a deterministic engine, used in tests.
func NewEngineWithSeed(seed int64) *Engine {
	return &Engine{
		rng:      rand.New(rand.NewSource(seed)),
		attempts: 64,
	}
}

// ComputePairing produces a maximal set of disjoint pairs avoiding every pair
// in history. Randomized greedy over shuffled orders with bounded retries;
// the best attempt (most pairs) wins. Best-effort: when the remaining graph
// has no perfect matching the result carries leftovers rather than silently
// repeating, except for the single flagged forced-repeat fallback.
func (e *Engine) ComputePairing(participants []string, history History) Result {
	ids := append([]string(nil), participants...)
	sort.Strings(ids)

	if len(ids) < 2 {
		return Result{LeftOver: ids}
	}

	want := len(ids) / 2
	var best []Pair
	for attempt := 0; attempt < e.attempts; attempt++ {
		order := append([]string(nil), ids...)
		e.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		pairs := greedyMatch(order, history)
		if len(pairs) > len(best) {
			best = pairs
		}
		if len(best) == want {
			break
		}
	}

	paired := make(map[string]bool, len(best)*2)
	for _, p := range best {
		paired[p.User1ID] = true
		paired[p.User2ID] = true
	}
	var leftOver []string
	for _, id := range ids {
		if !paired[id] {
			leftOver = append(leftOver, id)
		}
	}

	// Fallback: two or more stuck participants who have all met before.
	// Pair the two smallest ids exactly once, flagged, so late rounds with
	// small groups still run instead of stalling.
	if len(leftOver) >= 2 {
		best = append(best, Pair{
			User1ID:      leftOver[0],
			User2ID:      leftOver[1],
			ForcedRepeat: true,
		})
		leftOver = leftOver[2:]
	}

	for i := range best {
		best[i].MatchNumber = i + 1
		best[i].Color = ZoneColor(i)
	}

	return Result{Pairs: best, LeftOver: leftOver}
}

func greedyMatch(order []string, history History) []Pair {
	used := make(map[string]bool, len(order))
	var pairs []Pair
	for i, a := range order {
		if used[a] {
			continue
		}
		for _, b := range order[i+1:] {
			if used[b] || history[Key(a, b)] {
				continue
			}
			used[a], used[b] = true, true
			pairs = append(pairs, Pair{User1ID: a, User2ID: b})
			break
		}
	}
	return pairs
}

// Repeats returns the keys of pairs in the result that already exist in
// history. Only the flagged forced-repeat pair should ever show up here.
func (r Result) Repeats(history History) []string {
	var keys []string
	for _, p := range r.Pairs {
		if k := Key(p.User1ID, p.User2ID); history[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// String renders the result for logs.
func (r Result) String() string {
	var b strings.Builder
	for i, p := range r.Pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.User1ID)
		b.WriteString("+")
		b.WriteString(p.User2ID)
	}
	if len(r.LeftOver) > 0 {
		b.WriteString(" leftover=")
		b.WriteString(strings.Join(r.LeftOver, ","))
	}
	return b.String()
}
