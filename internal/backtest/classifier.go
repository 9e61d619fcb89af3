package backtest

import (
	"time"

	"github.com/openquant/hindsight/internal/core"
)

// Classify walks the bars strictly after a signal's trigger date and
// resolves the signal's outcome under the given policy.
//
// The walk maintains running close extrema seeded at the trigger price.
// The first bar whose running favorable move meets the success threshold
// ends the walk as a SUCCESS; the first bar whose running adverse move
// meets the failure threshold ends it as a FAIL. A bar that satisfies both
// resolves as SUCCESS. Exhausting the horizon, or the available bars,
// leaves the signal PENDING with best-effort peak information.
//
// Classify is a pure function of its inputs: identical inputs produce
// identical outcomes.
func Classify(sig core.Signal, forward []core.PriceBar, policy Policy) Outcome {
	out := Outcome{
		Signal: sig,
		State:  StatePending,
	}

	if len(forward) == 0 || sig.TriggerPrice <= 0 {
		// Signal too recent to judge. DaysToPeak stays nil.
		return out
	}

	horizon := policy.HorizonDays
	if horizon > len(forward) {
		horizon = len(forward)
	}

	runMax := sig.TriggerPrice
	runMin := sig.TriggerPrice
	peakOffset := 0
	var peakDate time.Time

	for i := 0; i < horizon; i++ {
		bar := forward[i]
		if bar.Close > runMax {
			runMax = bar.Close
			peakOffset = i + 1
			peakDate = bar.Date
		}
		if bar.Close < runMin {
			runMin = bar.Close
		}

		favorable := (runMax - sig.TriggerPrice) / sig.TriggerPrice
		adverse := (runMin - sig.TriggerPrice) / sig.TriggerPrice
		out.MaxFavorable = favorable
		out.MaxAdverse = adverse

		if favorable >= policy.SuccessThreshold {
			out.State = StateSuccess
			out.DaysToPeak = intPtr(peakOffset)
			exit := peakDate
			out.ExitDate = &exit
			return out
		}
		if adverse <= policy.FailureThreshold {
			out.State = StateFail
			if peakOffset > 0 {
				out.DaysToPeak = intPtr(peakOffset)
			}
			exit := bar.Date
			out.ExitDate = &exit
			return out
		}
	}

	// Horizon or data exhausted without a decision. Record the offset of
	// the running max observed so far; zero means no close ever exceeded
	// the trigger price.
	out.DaysToPeak = intPtr(peakOffset)
	return out
}

func intPtr(v int) *int {
	return &v
}
