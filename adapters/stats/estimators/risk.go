package estimators

import (
	"gosurv/domain/survival"

	"gonum.org/v1/gonum/floats"
)

// riskGroup collects the subjects sharing one distinct observed time
type riskGroup struct {
	time     float64
	atRisk   int
	events   int
	censored int
	members  []int // subject indices, events first
}

// riskTable groups a sample by distinct observed time in ascending order.
// atRisk counts the subjects with time >= the group time.
func riskTable(sample *survival.Sample) []riskGroup {
	times := sample.Times()
	order := make([]int, len(times))
	floats.Argsort(times, order)

	var groups []riskGroup
	for i := 0; i < len(order); {
		t := times[i]
		g := riskGroup{time: t, atRisk: len(order) - i}
		var censored []int
		j := i
		for ; j < len(order) && times[j] == t; j++ {
			idx := order[j]
			if sample.Subject(idx).Status {
				g.events++
				g.members = append(g.members, idx)
			} else {
				g.censored++
				censored = append(censored, idx)
			}
		}
		g.members = append(g.members, censored...)
		groups = append(groups, g)
		i = j
	}
	return groups
}
