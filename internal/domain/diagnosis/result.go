package diagnosis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

type jsonKind byte

const (
	kindString jsonKind = '"'
	kindArray  jsonKind = '['
	kindObject jsonKind = '{'
)

func (k jsonKind) String() string {
	switch k {
	case kindString:
		return "text"
	case kindArray:
		return "an array"
	case kindObject:
		return "an object"
	}
	return "unknown"
}

// requiredFields lists the result schema in the order fields are reported.
var requiredFields = []struct {
	name string
	kind jsonKind
}{
	{"summary", kindString},
	{"tools", kindArray},
	{"steps", kindArray},
	{"safetyWarnings", kindObject},
	{"imageDescriptions", kindArray},
}

// ValidateResult checks a recovered JSON value against the result schema.
// Every missing or mistyped field is reported at once; nothing partial is returned.
func ValidateResult(raw json.RawMessage) (AnalysisResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		if err == nil {
			err = fmt.Errorf("got null")
		}
		return AnalysisResult{}, ValidationError("result is not a JSON object", err)
	}

	var merr *multierror.Error
	for _, f := range requiredFields {
		v, ok := present(fields, f.name)
		if !ok {
			merr = multierror.Append(merr, fmt.Errorf("missing field %s", f.name))
			continue
		}
		if v = bytes.TrimSpace(v); jsonKind(v[0]) != f.kind {
			merr = multierror.Append(merr, fmt.Errorf("field %s must be %s", f.name, f.kind))
		}
	}
	if merr != nil {
		merr.ErrorFormat = joinErrors
		return AnalysisResult{}, ValidationError("result failed schema check", merr.ErrorOrNil())
	}

	var res AnalysisResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return AnalysisResult{}, ValidationError("result failed schema check", err)
	}
	return res, nil
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
