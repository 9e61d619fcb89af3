package backtest

import (
	"github.com/openquant/hindsight/internal/core"
)

// Aggregate groups every outcome across the supplied bundles by its
// signal's formation stage and computes cross-stock statistics. Win rate
// counts SUCCESS over resolved outcomes only; PENDING outcomes are
// excluded from the denominator and from the days-to-peak mean. A stage
// with no resolved outcomes reports a zero win rate with the
// insufficient-resolved flag set. Side-effect free and recomputed fresh
// on every report.
func Aggregate(bundles []*Bundle) map[core.FormationStage]StateStats {
	type acc struct {
		count   int
		wins    int
		losses  int
		sumFav  float64
		sumAdv  float64
		sumPeak int
		peakN   int
	}

	accs := make(map[core.FormationStage]*acc)
	for _, b := range bundles {
		if b == nil {
			continue
		}
		for _, o := range b.Outcomes {
			a := accs[o.Signal.Stage]
			if a == nil {
				a = &acc{}
				accs[o.Signal.Stage] = a
			}
			a.count++
			a.sumFav += o.MaxFavorable
			a.sumAdv += o.MaxAdverse
			switch o.State {
			case StateSuccess:
				a.wins++
			case StateFail:
				a.losses++
			}
			if o.State != StatePending && o.DaysToPeak != nil {
				a.sumPeak += *o.DaysToPeak
				a.peakN++
			}
		}
	}

	stats := make(map[core.FormationStage]StateStats, len(accs))
	for stage, a := range accs {
		s := StateStats{
			Stage:    stage,
			Count:    a.count,
			Resolved: a.wins + a.losses,
		}
		if s.Resolved > 0 {
			s.WinRate = float64(a.wins) / float64(s.Resolved)
		} else {
			s.InsufficientRes = true
		}
		if a.count > 0 {
			s.AvgMaxFavorable = a.sumFav / float64(a.count)
			s.AvgMaxAdverse = a.sumAdv / float64(a.count)
		}
		if a.peakN > 0 {
			s.AvgDaysToPeak = float64(a.sumPeak) / float64(a.peakN)
		}
		stats[stage] = s
	}
	return stats
}
