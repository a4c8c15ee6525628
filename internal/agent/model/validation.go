package model

// IssueSeverity ranks validation findings.
type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "critical"
	SeverityMajor    IssueSeverity = "major"
	SeverityMinor    IssueSeverity = "minor"
)

// ValidationIssue is one finding from response validation.
type ValidationIssue struct {
	Severity IssueSeverity `json:"severity"`
	Code     string        `json:"code"`
	Detail   string        `json:"detail"`
}

// ValidationResult aggregates the weighted sub-scores of one response.
// Valid requires the overall score to clear the threshold and no critical
// issue to be present.
type ValidationResult struct {
	Valid        bool              `json:"valid"`
	Score        float64           `json:"score"`
	Relevance    float64           `json:"relevance"`
	Completeness float64           `json:"completeness"`
	Coherence    float64           `json:"coherence"`
	Alignment    float64           `json:"alignment"`
	Confidence   float64           `json:"confidence"`
	Issues       []ValidationIssue `json:"issues,omitempty"`
}

// HasCritical reports whether any issue is critical.
func (v ValidationResult) HasCritical() bool {
	for _, is := range v.Issues {
		if is.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
