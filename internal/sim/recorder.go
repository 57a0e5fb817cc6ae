package sim

import (
	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

// defaultWindowSize bounds the trailing statistics window when the run
// configuration leaves it unset.
const defaultWindowSize = 1000

// RoundRecord captures one agent's turn in one episode.
type RoundRecord struct {
	Epoch    int
	Agent    string
	Option   int
	Ball     domain.Ball
	Selected int
	// Reward is the score credited for the selected option.
	Reward float64
	// ReportGap is the distance between the posted belief for the observed
	// option and the analytical best response to the same observation.
	ReportGap float64
}

// Summary aggregates the trailing window kept by a Recorder.
type Summary struct {
	// Rounds counts every record ever taken; Window counts those still
	// inside the trailing window the means are computed over.
	Rounds        int
	Window        int
	MeanReward    float64
	MeanReportGap float64
	// SelectedCounts tallies, per option, how often the decision market
	// picked it within the window.
	SelectedCounts []int
}

// Recorder keeps a bounded trailing window of round records so progress can
// be summarised without retaining the whole run.
type Recorder struct {
	window    []RoundRecord
	next      int
	count     int
	total     int
	actionNum int
}

// NewRecorder sizes the trailing window. A non-positive windowSize falls
// back to defaultWindowSize.
func NewRecorder(windowSize, actionNum int) *Recorder {
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	return &Recorder{
		window:    make([]RoundRecord, windowSize),
		actionNum: actionNum,
	}
}

// Record appends one round record, evicting the oldest once the window is
// full.
func (r *Recorder) Record(rec RoundRecord) {
	r.window[r.next] = rec
	r.next = (r.next + 1) % len(r.window)
	if r.count < len(r.window) {
		r.count++
	}
	r.total++
}

// Total counts every record taken since construction.
func (r *Recorder) Total() int { return r.total }

// Summary computes means and selection tallies over the trailing window.
func (r *Recorder) Summary() Summary {
	s := Summary{
		Rounds:         r.total,
		Window:         r.count,
		SelectedCounts: make([]int, r.actionNum),
	}
	if r.count == 0 {
		return s
	}
	for i := 0; i < r.count; i++ {
		rec := r.window[(r.next-r.count+i+len(r.window))%len(r.window)]
		s.MeanReward += rec.Reward
		s.MeanReportGap += rec.ReportGap
		if rec.Selected >= 0 && rec.Selected < r.actionNum {
			s.SelectedCounts[rec.Selected]++
		}
	}
	s.MeanReward /= float64(r.count)
	s.MeanReportGap /= float64(r.count)
	return s
}
