package records

import (
	"encoding/json"
	"errors"
	"fmt"
)

// The stored form keeps the feedback field as the empty string until analysis
// succeeds, then switches it to the structured object. Readers of the store
// rely on that distinction, so the codec preserves it on both directions.

type storedRecord struct {
	ID             string          `json:"id"`
	ResumePath     string          `json:"resumePath"`
	ImagePath      string          `json:"imagePath"`
	CompanyName    string          `json:"companyName"`
	JobTitle       string          `json:"jobTitle"`
	JobDescription string          `json:"jobDescription"`
	Feedback       json.RawMessage `json:"feedback"`
}

// Serialize encodes a record into its stored string form.
func Serialize(r AnalysisRecord) (string, error) {
	if r.ID == "" {
		return "", errors.New("record id is required")
	}
	stored := storedRecord{
		ID:             r.ID,
		ResumePath:     r.ResumePath,
		ImagePath:      r.ImagePath,
		CompanyName:    r.CompanyName,
		JobTitle:       r.JobTitle,
		JobDescription: r.JobDescription,
		Feedback:       json.RawMessage(`""`),
	}
	if r.Feedback != nil {
		raw, err := json.Marshal(r.Feedback)
		if err != nil {
			return "", fmt.Errorf("marshal feedback: %w", err)
		}
		stored.Feedback = raw
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(data), nil
}

// Deserialize decodes a stored string back into a record. An empty-string
// feedback field yields a nil Feedback.
func Deserialize(value string) (AnalysisRecord, error) {
	var stored storedRecord
	if err := json.Unmarshal([]byte(value), &stored); err != nil {
		return AnalysisRecord{}, fmt.Errorf("unmarshal record: %w", err)
	}
	if stored.ID == "" {
		return AnalysisRecord{}, errors.New("stored record missing id")
	}
	rec := AnalysisRecord{
		ID:             stored.ID,
		ResumePath:     stored.ResumePath,
		ImagePath:      stored.ImagePath,
		CompanyName:    stored.CompanyName,
		JobTitle:       stored.JobTitle,
		JobDescription: stored.JobDescription,
	}
	if len(stored.Feedback) > 0 && stored.Feedback[0] == '{' {
		var fb Feedback
		if err := json.Unmarshal(stored.Feedback, &fb); err != nil {
			return AnalysisRecord{}, fmt.Errorf("unmarshal feedback: %w", err)
		}
		rec.Feedback = &fb
	}
	return rec, nil
}
