package diagnosis

import "encoding/json"

// Mode is the interaction mode, derived from the request shape.
type Mode string

const (
	ModeInitial  Mode = "initial"
	ModeFollowUp Mode = "follow_up"
)

// AnalysisRequest is built fresh per call from the HTTP body.
type AnalysisRequest struct {
	Images                 []string
	Description            string
	Mode                   Mode
	PriorImageDescriptions []string
	PriorAnalysis          *AnalysisResult
}

// SafetyWarnings value object
type SafetyWarnings struct {
	HazardousMaterials []string `json:"hazardousMaterials"`
	AgeRelated         bool     `json:"ageRelated"`
	GeneralWarnings    []string `json:"generalWarnings"`
}

// AnalysisResult is the structured diagnosis returned to the caller.
type AnalysisResult struct {
	Summary           string         `json:"summary"`
	Tools             []string       `json:"tools"`
	Steps             []string       `json:"steps"`
	SafetyWarnings    SafetyWarnings `json:"safetyWarnings"`
	ImageDescriptions []string       `json:"imageDescriptions"`
}

// ImageAttachment is an image sent alongside the prompt text.
type ImageAttachment struct {
	URL    string
	Detail string
}

const DetailHigh = "high"

// Prompt is one instructional text block plus zero or more images.
type Prompt struct {
	Mode   Mode
	Text   string
	Images []ImageAttachment
}

// Diagnosis is the outcome of one successful pipeline run.
type Diagnosis struct {
	Result AnalysisResult
	// Raw is the JSON recovered from the model output, returned verbatim to the caller.
	Raw      json.RawMessage
	Strategy string
	Mode     Mode
}
