package resumes

import "resumind-backend/internal/records"

type submitResponse struct {
	ID string `json:"id"`
}

type resumeResponse struct {
	ID             string            `json:"id"`
	ResumePath     string            `json:"resumePath"`
	ImagePath      string            `json:"imagePath"`
	CompanyName    string            `json:"companyName"`
	JobTitle       string            `json:"jobTitle"`
	JobDescription string            `json:"jobDescription"`
	Analyzed       bool              `json:"analyzed"`
	Feedback       *records.Feedback `json:"feedback,omitempty"`
}

type listResponse struct {
	Resumes []resumeResponse `json:"resumes"`
}

func toResponse(rec records.AnalysisRecord) resumeResponse {
	return resumeResponse{
		ID:             rec.ID,
		ResumePath:     rec.ResumePath,
		ImagePath:      rec.ImagePath,
		CompanyName:    rec.CompanyName,
		JobTitle:       rec.JobTitle,
		JobDescription: rec.JobDescription,
		Analyzed:       rec.Analyzed(),
		Feedback:       rec.Feedback,
	}
}

func toListResponse(recs []records.AnalysisRecord) listResponse {
	out := listResponse{Resumes: make([]resumeResponse, 0, len(recs))}
	for _, rec := range recs {
		out.Resumes = append(out.Resumes, toResponse(rec))
	}
	return out
}
