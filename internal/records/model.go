package records

import (
	"encoding/json"
	"fmt"
	"strings"
)

// KeyPrefix namespaces every stored record key.
const KeyPrefix = "resume:"

// Tip types as emitted by the feedback schema.
const (
	TipGood    = "good"
	TipImprove = "improve"
)

// AnalysisRecord is the durable unit of state for one submission. It is
// created once, written to the record store with empty feedback after the
// uploads succeed, and overwritten exactly once more when analysis completes.
type AnalysisRecord struct {
	ID             string    `json:"id"`
	ResumePath     string    `json:"resumePath"`
	ImagePath      string    `json:"imagePath"`
	CompanyName    string    `json:"companyName"`
	JobTitle       string    `json:"jobTitle"`
	JobDescription string    `json:"jobDescription"`
	Feedback       *Feedback `json:"feedback"`
}

// Key returns the record store key for this record.
func (r AnalysisRecord) Key() string {
	return KeyPrefix + r.ID
}

// Analyzed reports whether the record carries a completed analysis.
func (r AnalysisRecord) Analyzed() bool {
	return r.Feedback != nil
}

// Feedback is the structured result of a completed analysis.
type Feedback struct {
	OverallScore int      `json:"overallScore"`
	ATS          Category `json:"ATS"`
	ToneAndStyle Category `json:"toneAndStyle"`
	Content      Category `json:"content"`
	Structure    Category `json:"structure"`
	Skills       Category `json:"skills"`
}

// Category is one scored dimension of the feedback.
type Category struct {
	Score int   `json:"score"`
	Tips  []Tip `json:"tips"`
}

// Tip is a single piece of advice within a category. Explanation is optional
// and omitted for the short-form ATS tips.
type Tip struct {
	Type        string `json:"type"`
	Tip         string `json:"tip"`
	Explanation string `json:"explanation,omitempty"`
}

// ParseFeedback decodes raw model output into a Feedback value. It rejects
// anything that is not a JSON object carrying the expected top-level shape so
// that a partially valid blob never reaches storage.
func ParseFeedback(raw []byte) (*Feedback, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, fmt.Errorf("empty feedback payload")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("feedback payload is not a JSON object")
	}
	var fb Feedback
	dec := json.NewDecoder(strings.NewReader(trimmed))
	if err := dec.Decode(&fb); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	return &fb, nil
}
