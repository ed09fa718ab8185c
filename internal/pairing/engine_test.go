package pairing

import (
	"fmt"
	"math/rand"
	"testing"
)

func participantIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("u%02d", i)
	}
	return ids
}

func TestComputePairingCounts(t *testing.T) {
	e := NewEngineWithSeed(1)
	for n := 2; n <= 12; n++ {
		res := e.ComputePairing(participantIDs(n), History{})
		if len(res.Pairs) != n/2 {
			t.Errorf("n=%d: got %d pairs, want %d", n, len(res.Pairs), n/2)
		}
		if n%2 == 1 && len(res.LeftOver) != 1 {
			t.Errorf("n=%d: got %d leftovers, want 1", n, len(res.LeftOver))
		}
		if n%2 == 0 && len(res.LeftOver) != 0 {
			t.Errorf("n=%d: got leftovers %v, want none", n, res.LeftOver)
		}
	}
}

func TestComputePairingDisjoint(t *testing.T) {
	e := NewEngineWithSeed(2)
	res := e.ComputePairing(participantIDs(10), History{})
	seen := make(map[string]bool)
	for _, p := range res.Pairs {
		if p.User1ID == p.User2ID {
			t.Fatalf("self-pair %q", p.User1ID)
		}
		if seen[p.User1ID] || seen[p.User2ID] {
			t.Fatalf("participant paired twice: %+v", p)
		}
		seen[p.User1ID] = true
		seen[p.User2ID] = true
	}
	for _, id := range res.LeftOver {
		if seen[id] {
			t.Fatalf("leftover %q also paired", id)
		}
	}
}

// Simulates full sessions: random participant sets and round counts, feeding
// each round's result back into the history, and asserts the no-repeat
// invariant holds with no unflagged repeats.
func TestComputePairingNoRepeatsAcrossRounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		n := 3 + rng.Intn(14)
		rounds := 1 + rng.Intn(5)
		min := rounds
		if rounds%2 == 0 {
			min = rounds + 1
		}
		if n < min {
			n = min
		}

		e := NewEngineWithSeed(int64(trial))
		ids := participantIDs(n)
		history := History{}

		for round := 1; round <= rounds; round++ {
			res := e.ComputePairing(ids, history)
			for _, p := range res.Pairs {
				k := Key(p.User1ID, p.User2ID)
				if history[k] && !p.ForcedRepeat {
					t.Fatalf("trial %d n=%d round %d: unflagged repeat %s", trial, n, round, k)
				}
				history[k] = true
			}
		}
	}
}

func TestComputePairingAvoidsHistory(t *testing.T) {
	e := NewEngineWithSeed(7)
	ids := []string{"a", "b", "c", "d"}
	history := HistoryFrom([][2]string{{"a", "b"}, {"c", "d"}})

	res := e.ComputePairing(ids, history)
	if len(res.Pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(res.Pairs))
	}
	for _, p := range res.Pairs {
		if history[Key(p.User1ID, p.User2ID)] {
			t.Errorf("repeated pair %s+%s", p.User1ID, p.User2ID)
		}
	}
}

func TestComputePairingForcedRepeatFallback(t *testing.T) {
	// Two participants who have already met: the only way to run another
	// round is the single flagged forced repeat.
	e := NewEngineWithSeed(3)
	history := HistoryFrom([][2]string{{"a", "b"}})

	res := e.ComputePairing([]string{"a", "b"}, history)
	if len(res.Pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(res.Pairs))
	}
	if !res.Pairs[0].ForcedRepeat {
		t.Error("fallback pair not flagged as forced repeat")
	}
	if len(res.LeftOver) != 0 {
		t.Errorf("unexpected leftovers %v", res.LeftOver)
	}
	if got := res.Repeats(history); len(got) != 1 {
		t.Errorf("Repeats = %v, want exactly the forced pair", got)
	}
}

func TestComputePairingTooFew(t *testing.T) {
	e := NewEngineWithSeed(4)
	res := e.ComputePairing([]string{"solo"}, History{})
	if len(res.Pairs) != 0 || len(res.LeftOver) != 1 {
		t.Fatalf("got %+v, want single leftover", res)
	}
}

func TestPairNumbersAndColors(t *testing.T) {
	e := NewEngineWithSeed(5)
	res := e.ComputePairing(participantIDs(8), History{})
	for i, p := range res.Pairs {
		if p.MatchNumber != i+1 {
			t.Errorf("pair %d: number %d, want %d", i, p.MatchNumber, i+1)
		}
		if p.Color != ZoneColor(i) {
			t.Errorf("pair %d: color %q, want %q", i, p.Color, ZoneColor(i))
		}
	}
}

func TestZoneColorDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < PaletteSize(); i++ {
		c := ZoneColor(i)
		if seen[c] {
			t.Errorf("color %q repeats inside palette", c)
		}
		seen[c] = true
	}
	if PaletteSize() < 16 {
		t.Errorf("palette has %d colors, want at least 16", PaletteSize())
	}
}

func TestKeyUnordered(t *testing.T) {
	if Key("x", "y") != Key("y", "x") {
		t.Error("Key is order-sensitive")
	}
}
