package diagnosis_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/homefix-vision/internal/domain/diagnosis"
)

const pngURI = "data:image/png;base64,iVBORw0KGgo="

func requireKind(t *testing.T, err error, kind diagnosis.Kind) *diagnosis.Error {
	t.Helper()
	var e *diagnosis.Error
	require.True(t, errors.As(err, &e), "expected *diagnosis.Error, got %v", err)
	require.Equal(t, kind, e.Kind)
	return e
}

func TestParseRequest_MethodNotAllowed(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodOptions} {
		_, err := diagnosis.ParseRequest(m, []byte(`{"images":["`+pngURI+`"]}`))
		requireKind(t, err, diagnosis.KindMethodNotAllowed)
	}
}

func TestParseRequest_BodyNotJSON(t *testing.T) {
	for _, body := range []string{`{images:`, `not json`, `[1,2]`, `null`} {
		_, err := diagnosis.ParseRequest(http.MethodPost, []byte(body))
		e := requireKind(t, err, diagnosis.KindInvalidRequest)
		assert.Equal(t, "body not JSON", e.Detail, body)
	}
}

func TestParseRequest_NoImages(t *testing.T) {
	bodies := []string{
		``,
		`{}`,
		`{"images":[]}`,
		`{"images":null}`,
		`{"images":"` + pngURI + `"}`,
		`{"images":[1,2]}`,
		`{"description":"leaking tap"}`,
	}
	for _, body := range bodies {
		_, err := diagnosis.ParseRequest(http.MethodPost, []byte(body))
		e := requireKind(t, err, diagnosis.KindInvalidRequest)
		assert.Equal(t, "no images", e.Detail, body)
	}
}

func TestParseRequest_BadImageFormat_FirstOffenderWins(t *testing.T) {
	cases := []struct {
		body  string
		index string
	}{
		{`{"images":["ftp://x/a.png","` + pngURI + `"]}`, "image 0"},
		{`{"images":["` + pngURI + `","data:text/plain;base64,aGk=","nope"]}`, "image 1"},
		{`{"images":["https://example.com/a.jpg","` + pngURI + `","/local/path.jpg"]}`, "image 2"},
	}
	for _, tc := range cases {
		_, err := diagnosis.ParseRequest(http.MethodPost, []byte(tc.body))
		e := requireKind(t, err, diagnosis.KindInvalidRequest)
		assert.Equal(t, "bad image format", e.Detail)
		assert.Contains(t, e.Details(), tc.index)
	}
}

func TestParseRequest_Initial(t *testing.T) {
	req, err := diagnosis.ParseRequest(http.MethodPost, []byte(`{
		"images": ["`+pngURI+`", "https://example.com/crack.jpg"],
		"description": "is this structural?"
	}`))
	require.NoError(t, err)
	assert.Equal(t, diagnosis.ModeInitial, req.Mode)
	assert.Equal(t, []string{pngURI, "https://example.com/crack.jpg"}, req.Images)
	assert.Equal(t, "is this structural?", req.Description)
	assert.Nil(t, req.PriorAnalysis)
}

func TestParseRequest_LegacySingleImage(t *testing.T) {
	req, err := diagnosis.ParseRequest(http.MethodPost, []byte(`{"image":"`+pngURI+`"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{pngURI}, req.Images)

	_, err = diagnosis.ParseRequest(http.MethodPost, []byte(`{"image":"c:\\photo.jpg"}`))
	e := requireKind(t, err, diagnosis.KindInvalidRequest)
	assert.Equal(t, "bad image format", e.Detail)
}

const priorAnalysis = `{
	"summary": "Cracked drywall",
	"tools": ["putty knife"],
	"steps": ["tape", "mud"],
	"safetyWarnings": {"hazardousMaterials": [], "ageRelated": false, "generalWarnings": []},
	"imageDescriptions": ["hairline crack above door frame"]
}`

func TestParseRequest_FollowUp(t *testing.T) {
	req, err := diagnosis.ParseRequest(http.MethodPost, []byte(`{
		"description": "what grit sandpaper?",
		"priorImageDescriptions": ["hairline crack above door frame"],
		"previousAnalysis": `+priorAnalysis+`
	}`))
	require.NoError(t, err)
	assert.Equal(t, diagnosis.ModeFollowUp, req.Mode)
	assert.Empty(t, req.Images)
	require.NotNil(t, req.PriorAnalysis)
	assert.Equal(t, "Cracked drywall", req.PriorAnalysis.Summary)
	assert.Equal(t, []string{"hairline crack above door frame"}, req.PriorImageDescriptions)
}

func TestParseRequest_FollowUpAcceptsPriorAnalysisAlias(t *testing.T) {
	req, err := diagnosis.ParseRequest(http.MethodPost, []byte(`{
		"priorImageDescriptions": [],
		"priorAnalysis": `+priorAnalysis+`
	}`))
	require.NoError(t, err)
	assert.Equal(t, diagnosis.ModeFollowUp, req.Mode)
	require.NotNil(t, req.PriorAnalysis)
}

func TestParseRequest_FollowUpMissingPreviousAnalysis(t *testing.T) {
	_, err := diagnosis.ParseRequest(http.MethodPost, []byte(`{
		"description": "and now?",
		"priorImageDescriptions": ["a photo"]
	}`))
	e := requireKind(t, err, diagnosis.KindInvalidRequest)
	assert.Equal(t, "missing previousAnalysis", e.Detail)
}

func TestParseRequest_FollowUpValidatesSuppliedImages(t *testing.T) {
	_, err := diagnosis.ParseRequest(http.MethodPost, []byte(`{
		"images": ["blob:1234"],
		"priorImageDescriptions": ["a photo"],
		"previousAnalysis": `+priorAnalysis+`
	}`))
	e := requireKind(t, err, diagnosis.KindInvalidRequest)
	assert.Equal(t, "bad image format", e.Detail)
}

func TestValidImageRef(t *testing.T) {
	assert.True(t, diagnosis.ValidImageRef(pngURI))
	assert.True(t, diagnosis.ValidImageRef("http://example.com/x.png"))
	assert.True(t, diagnosis.ValidImageRef("https://example.com/x.png"))
	assert.False(t, diagnosis.ValidImageRef("data:application/pdf;base64,AAAA"))
	assert.False(t, diagnosis.ValidImageRef(""))
}
