package pairing

import "fmt"

type ViolationKind string

const (
	ViolationIncompleteZone     ViolationKind = "incomplete_zone"
	ViolationDuplicatePair      ViolationKind = "duplicate_pair"
	ViolationSelfPair           ViolationKind = "self_pair"
	ViolationDuplicateOccupant  ViolationKind = "duplicate_occupant"
	ViolationUnknownParticipant ViolationKind = "unknown_participant"
	ViolationOverfullZone       ViolationKind = "overfull_zone"
)

// Violation is one machine-checkable problem in a manual assignment.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	Zone    int           `json:"zone"`
	Message string        `json:"message"`
}

// ManualAssignment is the arena+index model for admin-assisted pairing:
// a fixed-size array of zones, each holding 0, 1, or 2 participant ids.
type ManualAssignment struct {
	Zones [][]string `json:"zones"`
}

// ValidationResult reports violations plus the derived counts the caller
// uses to gate the start-round action.
type ValidationResult struct {
	OK              bool        `json:"ok"`
	Violations      []Violation `json:"violations"`
	CompleteZones   int         `json:"completeZones"`
	IncompleteZones int         `json:"incompleteZones"`
	Unmatched       int         `json:"unmatched"`
}

// ValidateManualAssignment checks an admin-built assignment against the full
// session history. names maps user ids to display names so violation messages
// can identify people. participants is the set of joined user ids, used both
// for the unmatched count and to reject ids that never joined.
//
// A result with zero violations but zero complete zones is "nothing to
// start" and reports OK=false.
func ValidateManualAssignment(a ManualAssignment, history History, names map[string]string, participants []string) ValidationResult {
	res := ValidationResult{}
	joined := make(map[string]bool, len(participants))
	for _, id := range participants {
		joined[id] = true
	}
	assigned := make(map[string]int)

	for zone, occupants := range a.Zones {
		if len(occupants) > 2 {
			res.Violations = append(res.Violations, Violation{
				Kind:    ViolationOverfullZone,
				Zone:    zone,
				Message: fmt.Sprintf("zone %d holds %d participants, a zone fits two", zone+1, len(occupants)),
			})
		}
		selfPair := len(occupants) == 2 && occupants[0] == occupants[1]
		if selfPair {
			res.Violations = append(res.Violations, Violation{
				Kind:    ViolationSelfPair,
				Zone:    zone,
				Message: fmt.Sprintf("zone %d pairs %s with themselves", zone+1, displayName(names, occupants[0])),
			})
		}
		for i, id := range occupants {
			if !joined[id] {
				res.Violations = append(res.Violations, Violation{
					Kind:    ViolationUnknownParticipant,
					Zone:    zone,
					Message: fmt.Sprintf("zone %d includes %s, who has not joined the session", zone+1, displayName(names, id)),
				})
			}
			if prev, dup := assigned[id]; dup {
				// A self pair is already reported above, don't flag its
				// second occupant a second time.
				if !selfPair || i == 0 {
					res.Violations = append(res.Violations, Violation{
						Kind:    ViolationDuplicateOccupant,
						Zone:    zone,
						Message: fmt.Sprintf("%s is assigned to both zone %d and zone %d", displayName(names, id), prev+1, zone+1),
					})
				}
				continue
			}
			assigned[id] = zone
		}
		switch len(occupants) {
		case 0:
			// empty zones are fine
		case 1:
			res.IncompleteZones++
			res.Violations = append(res.Violations, Violation{
				Kind:    ViolationIncompleteZone,
				Zone:    zone,
				Message: fmt.Sprintf("zone %d has only one participant (%s)", zone+1, displayName(names, occupants[0])),
			})
		case 2:
			if selfPair {
				break
			}
			if history[Key(occupants[0], occupants[1])] {
				res.Violations = append(res.Violations, Violation{
					Kind: ViolationDuplicatePair,
					Zone: zone,
					Message: fmt.Sprintf("%s and %s were already matched in an earlier round",
						displayName(names, occupants[0]), displayName(names, occupants[1])),
				})
			}
			res.CompleteZones++
		}
	}

	for _, id := range participants {
		if _, ok := assigned[id]; !ok {
			res.Unmatched++
		}
	}

	res.OK = len(res.Violations) == 0 && res.CompleteZones > 0
	return res
}

// Pairs converts the complete zones of an assignment into flagged pairs with
// zone-derived numbers and colors. Call only after validation passed.
func (a ManualAssignment) Pairs() []Pair {
	var pairs []Pair
	for zone, occupants := range a.Zones {
		if len(occupants) != 2 {
			continue
		}
		pairs = append(pairs, Pair{
			User1ID:     occupants[0],
			User2ID:     occupants[1],
			MatchNumber: zone + 1,
			Color:       ZoneColor(zone),
		})
	}
	return pairs
}

func displayName(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}
