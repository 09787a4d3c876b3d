package assessment

const (
	DefaultPassThreshold = 50.0
	DefaultNegativeMark  = 0.25
)

// Score is a computed outcome before it is persisted as an AssessmentResult.
type Score struct {
	Score      float64
	Percentage float64
	Correct    int
	Wrong      int
	Total      int
	Status     ResultStatus
}

// ScoreSession is the session scorer: score = 100 * correct / total.
// total is the number of frozen session questions, answered or not.
func ScoreSession(correct, wrong, total int, passThreshold float64) Score {
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(correct) / float64(total)
	}
	return Score{
		Score:      pct,
		Percentage: pct,
		Correct:    correct,
		Wrong:      wrong,
		Total:      total,
		Status:     passStatus(pct, passThreshold),
	}
}

// ScoreNegativeMarking is the standalone test scorer:
// raw = correct - penalty*wrong, percentage = 100 * raw / total.
func ScoreNegativeMarking(correct, wrong, total int, penalty, passThreshold float64) Score {
	raw := float64(correct) - penalty*float64(wrong)
	pct := 0.0
	if total > 0 {
		pct = 100 * raw / float64(total)
	}
	return Score{
		Score:      raw,
		Percentage: pct,
		Correct:    correct,
		Wrong:      wrong,
		Total:      total,
		Status:     passStatus(pct, passThreshold),
	}
}

func passStatus(pct, threshold float64) ResultStatus {
	if pct >= threshold {
		return ResultPassed
	}
	return ResultFailed
}
