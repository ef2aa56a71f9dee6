package models

// BatchFailure records one item that failed inside a best-effort batch job.
type BatchFailure struct {
	StudentNumber string `json:"student_number"`
	Reason        string `json:"reason"`
}

// BatchResult is the first-class outcome of a best-effort batch operation.
// Batch jobs never abort on a single item; callers must inspect both slices
// rather than treat an error as total failure.
type BatchResult struct {
	Succeeded []string       `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

// FailureCount returns the number of failed items.
func (r BatchResult) FailureCount() int {
	return len(r.Failed)
}

// SuccessCount returns the number of succeeded items.
func (r BatchResult) SuccessCount() int {
	return len(r.Succeeded)
}
