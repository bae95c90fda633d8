package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

func TestItemSpeed(t *testing.T) {
	speed, ok := ItemSpeed(testutil.Dec("8"), testutil.Dec("2"), testutil.Dec("8"))
	assert.True(t, ok)
	assert.Equal(t, 80, speed)

	speed, ok = ItemSpeed(testutil.Dec("5"), testutil.Dec("0"), testutil.Dec("3"))
	assert.True(t, ok)
	assert.Equal(t, 167, speed, "166.67 rounds up")

	_, ok = ItemSpeed(testutil.Dec("5"), testutil.Dec("0"), testutil.Dec("0"))
	assert.False(t, ok)
}

func TestClassifySpeed(t *testing.T) {
	th := SpeedThresholds{Lowest: 70, Low: 80, High: 140}
	tests := []struct {
		speed int
		want  domain.Deviation
	}{
		{50, domain.DeviationMajor},
		{70, domain.DeviationMajor},
		{75, domain.DeviationMinor},
		{80, domain.DeviationMinor},
		{100, domain.DeviationNone},
		{139, domain.DeviationNone},
		{140, domain.DeviationBelow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySpeed(tt.speed, th), "speed %d", tt.speed)
	}
}
