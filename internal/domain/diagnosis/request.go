package diagnosis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const imageDataPrefix = "data:image/"

// ValidImageRef reports whether ref is an embedded image data URI or an http(s) URL.
// The check is syntactic; nothing is fetched or decoded.
func ValidImageRef(ref string) bool {
	return strings.HasPrefix(ref, imageDataPrefix) || strings.HasPrefix(ref, "http")
}

// ParseRequest validates the HTTP method and body and builds an AnalysisRequest.
func ParseRequest(method string, body []byte) (AnalysisRequest, error) {
	if method != http.MethodPost {
		return AnalysisRequest{}, MethodNotAllowed(method)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return AnalysisRequest{}, &Error{Kind: KindInvalidRequest, Detail: "body not JSON", Err: err}
	}

	req := AnalysisRequest{Mode: ModeInitial}

	var images []string
	imagesOK := true
	if raw, ok := present(fields, "images"); ok {
		if err := json.Unmarshal(raw, &images); err != nil {
			imagesOK = false
		}
	}
	// single-image field from the first API revision
	if raw, ok := present(fields, "image"); ok {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return AnalysisRequest{}, InvalidRequest("image must be a string")
		}
		images = append([]string{single}, images...)
	}

	if raw, ok := present(fields, "description"); ok {
		if err := json.Unmarshal(raw, &req.Description); err != nil {
			return AnalysisRequest{}, InvalidRequest("description must be a string")
		}
	}

	if raw, ok := present(fields, "priorImageDescriptions"); ok {
		req.Mode = ModeFollowUp
		if err := json.Unmarshal(raw, &req.PriorImageDescriptions); err != nil {
			return AnalysisRequest{}, InvalidRequest("priorImageDescriptions must be an array of strings")
		}
	}

	switch req.Mode {
	case ModeInitial:
		if !imagesOK || len(images) == 0 {
			return AnalysisRequest{}, InvalidRequest("no images")
		}
	case ModeFollowUp:
		if !imagesOK {
			return AnalysisRequest{}, InvalidRequest("images must be an array of strings")
		}
		raw, ok := present(fields, "previousAnalysis")
		if !ok {
			raw, ok = present(fields, "priorAnalysis")
		}
		if !ok {
			return AnalysisRequest{}, InvalidRequest("missing previousAnalysis")
		}
		var prior AnalysisResult
		if err := json.Unmarshal(raw, &prior); err != nil {
			return AnalysisRequest{}, &Error{Kind: KindInvalidRequest, Detail: "previousAnalysis malformed", Err: err}
		}
		req.PriorAnalysis = &prior
	}

	for i, img := range images {
		if !ValidImageRef(img) {
			return AnalysisRequest{}, &Error{
				Kind:   KindInvalidRequest,
				Detail: "bad image format",
				Err:    fmt.Errorf("image %d must be a data:image/ URI or an http(s) URL", i),
			}
		}
	}
	req.Images = images

	return req, nil
}

// present returns the raw value of key when it exists and is not JSON null.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}
