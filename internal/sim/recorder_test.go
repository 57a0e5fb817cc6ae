package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderWindow(t *testing.T) {
	r := NewRecorder(2, 2)
	r.Record(RoundRecord{Reward: 1, ReportGap: 0.5, Selected: 0})
	r.Record(RoundRecord{Reward: 2, ReportGap: 0.1, Selected: 1})
	r.Record(RoundRecord{Reward: 4, ReportGap: 0.3, Selected: 1})

	s := r.Summary()
	assert.Equal(t, 3, s.Rounds)
	assert.Equal(t, 2, s.Window)
	assert.InDelta(t, 3.0, s.MeanReward, 1e-12)
	assert.InDelta(t, 0.2, s.MeanReportGap, 1e-12)
	assert.Equal(t, []int{0, 2}, s.SelectedCounts)
	assert.Equal(t, 3, r.Total())
}

func TestRecorderEmptySummary(t *testing.T) {
	r := NewRecorder(0, 3)

	s := r.Summary()
	assert.Equal(t, 0, s.Rounds)
	assert.Equal(t, 0, s.Window)
	assert.Zero(t, s.MeanReward)
	assert.Zero(t, s.MeanReportGap)
	assert.Equal(t, []int{0, 0, 0}, s.SelectedCounts)
}
