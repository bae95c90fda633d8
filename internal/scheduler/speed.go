package scheduler

import (
	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// SpeedThresholds are percentages bounding the deviation classes.
type SpeedThresholds struct {
	Lowest int
	Low    int
	High   int
}

// ItemSpeed is estimated hours as a percentage of the time the item really
// takes (pending plus spent), rounded to an integer. ok is false when no
// time has been pending or spent.
func ItemSpeed(estimated, pending, spent decimal.Decimal) (int, bool) {
	total := pending.Add(spent)
	if !total.IsPositive() {
		return 0, false
	}
	pct := estimated.Mul(decimal.NewFromInt(100)).Div(total).Round(0)
	return int(pct.IntPart()), true
}

// ClassifySpeed maps a speed percentage to its deviation class.
func ClassifySpeed(speed int, th SpeedThresholds) domain.Deviation {
	switch {
	case speed <= th.Lowest:
		return domain.DeviationMajor
	case speed <= th.Low:
		return domain.DeviationMinor
	case speed >= th.High:
		return domain.DeviationBelow
	default:
		return domain.DeviationNone
	}
}
