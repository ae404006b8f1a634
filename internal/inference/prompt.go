package inference

import (
	"fmt"
	"strings"
)

// ResponseFormat describes the feedback JSON the model must return. It is
// embedded verbatim in the instructions so the reply can be parsed directly
// into the record's feedback field.
const ResponseFormat = `interface Feedback {
  overallScore: number; // max 100
  ATS: {
    score: number; // rate based on ATS suitability
    tips: { type: "good" | "improve"; tip: string }[]; // give 3-4 tips
  };
  toneAndStyle: {
    score: number; // max 100
    tips: { type: "good" | "improve"; tip: string; explanation: string }[]; // give 3-4 tips
  };
  content: {
    score: number; // max 100
    tips: { type: "good" | "improve"; tip: string; explanation: string }[]; // give 3-4 tips
  };
  structure: {
    score: number; // max 100
    tips: { type: "good" | "improve"; tip: string; explanation: string }[]; // give 3-4 tips
  };
  skills: {
    score: number; // max 100
    tips: { type: "good" | "improve"; tip: string; explanation: string }[]; // give 3-4 tips
  };
}`

// Instructions captures the job context a submission is analyzed against.
type Instructions struct {
	JobTitle       string
	JobDescription string
}

// PrepareInstructions builds the deterministic instruction payload for one
// analysis. Identical inputs always produce identical instructions.
func PrepareInstructions(in Instructions) string {
	var b strings.Builder
	b.WriteString("You are an expert in ATS (Applicant Tracking Systems) and resume analysis.\n")
	b.WriteString("Please analyze and rate this resume and suggest how to improve it.\n")
	b.WriteString("The rating can be low if the resume is bad.\n")
	b.WriteString("Be thorough and detailed. Don't be afraid to point out any mistakes or areas for improvement.\n")
	b.WriteString("If there is a lot to improve, don't hesitate to give low scores.\n")
	if in.JobTitle != "" {
		fmt.Fprintf(&b, "The job title is: %s\n", in.JobTitle)
	}
	if in.JobDescription != "" {
		fmt.Fprintf(&b, "The job description is: %s\n", in.JobDescription)
	}
	fmt.Fprintf(&b, "Provide the feedback using the following format: %s\n", ResponseFormat)
	b.WriteString("Return the analysis as a JSON object, without any other text.\n")
	b.WriteString("Do not include any other text or comments.")
	return b.String()
}
