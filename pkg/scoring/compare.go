package scoring

// IsAttemptBetter reports whether candidate should replace baseline as the
// best attempt. An invalid candidate never wins and any valid candidate
// beats a missing or invalid baseline. Otherwise the higher score wins,
// then the higher accuracy, then the earlier attempt.
func IsAttemptBetter(candidate, baseline *Result) bool {
	if candidate == nil || !candidate.Valid {
		return false
	}
	if baseline == nil || !baseline.Valid {
		return true
	}
	if candidate.Score != baseline.Score {
		return candidate.Score > baseline.Score
	}
	if ca, ba := candidate.accuracy(), baseline.accuracy(); ca != ba {
		return ca > ba
	}
	return candidate.AttemptIndex < baseline.AttemptIndex
}

func (r *Result) accuracy() int {
	if r.Subscores == nil {
		return 0
	}
	return r.Subscores.Accuracy
}
