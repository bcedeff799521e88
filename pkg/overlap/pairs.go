package overlap

import (
	"time"

	"github.com/arnavshah/pair-overlap-api/pkg/models"
)

// PairTotal is the accumulated overlap of two employees within one project
type PairTotal struct {
	EmpID1   string
	EmpID2   string
	WorkDays int
}

// Key renders the pair the way it is shown to users, "E1:E2"
func (p PairTotal) Key() string {
	return p.EmpID1 + ":" + p.EmpID2
}

type pairKey struct {
	first, second string
}

// ProjectPairs sums the shared days of every pair of distinct employees in
// one project's assignments. The caller passes assignments of a single
// project. A pair keeps the order in which it was first produced, and later
// rows for the same two employees add onto it whichever way round they come.
func ProjectPairs(assignments []models.Assignment, now time.Time) []PairTotal {
	totals := make(map[pairKey]int)
	var order []pairKey

	for i := 0; i < len(assignments); i++ {
		for j := i + 1; j < len(assignments); j++ {
			a, b := assignments[i], assignments[j]
			if a.EmployeeID == b.EmployeeID {
				continue
			}

			workDays := CrossWorkDays(a.StartDate, a.EndDate, b.StartDate, b.EndDate, now)
			if workDays <= 0 {
				continue
			}

			key := pairKey{a.EmployeeID, b.EmployeeID}
			if _, ok := totals[key]; !ok {
				reversed := pairKey{b.EmployeeID, a.EmployeeID}
				if _, ok := totals[reversed]; ok {
					key = reversed
				} else {
					order = append(order, key)
				}
			}
			totals[key] += workDays
		}
	}

	pairs := make([]PairTotal, 0, len(order))
	for _, key := range order {
		pairs = append(pairs, PairTotal{
			EmpID1:   key.first,
			EmpID2:   key.second,
			WorkDays: totals[key],
		})
	}
	return pairs
}
