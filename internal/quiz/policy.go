package quiz

const (
	StatusPassed = "passed"
	StatusFailed = "failed"

	// PassThreshold is the inclusive minimum score for a passed status.
	PassThreshold = 50
)

// RoundPercent returns num/den*100 rounded half up, using integer arithmetic
// so that .5 boundaries are exact. den must be positive.
func RoundPercent(num, den int) int {
	if den <= 0 {
		return 0
	}
	return (num*200 + den) / (2 * den)
}

// RoundMean returns sum/n rounded half up. n must be positive.
func RoundMean(sum, n int) int {
	if n <= 0 {
		return 0
	}
	return (2*sum + n) / (2 * n)
}

func StatusFor(score int) string {
	if score >= PassThreshold {
		return StatusPassed
	}
	return StatusFailed
}
