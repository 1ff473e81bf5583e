package extract_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/homefix-vision/internal/domain/diagnosis"
	"github.com/bryanwahyu/homefix-vision/internal/infra/ai/extract"
)

func TestExtract_DirectWinsOverFence(t *testing.T) {
	// A JSON string whose content contains a fenced block: valid standalone JSON.
	text := "\"```json\\n{\\\"summary\\\":\\\"fenced\\\"}\\n```\""
	got, err := extract.Extract(text)
	require.NoError(t, err)
	assert.Equal(t, "direct", got.Strategy)

	var s string
	require.NoError(t, json.Unmarshal(got.Raw, &s))
	assert.Contains(t, s, "fenced")
}

func TestExtract_DirectObjectWithEmbeddedFence(t *testing.T) {
	text := `{"summary":"direct","steps":["run this:\n` + "```json\\n{\\\"summary\\\":\\\"other\\\"}\\n```" + `"]}`
	got, err := extract.Extract(text)
	require.NoError(t, err)
	assert.Equal(t, "direct", got.Strategy)

	var v map[string]any
	require.NoError(t, json.Unmarshal(got.Raw, &v))
	assert.Equal(t, "direct", v["summary"])
}

func TestExtract_FencedBlockAcceptedByValidator(t *testing.T) {
	text := "Here is the result:\n```json\n{\"summary\":\"x\",\"tools\":[],\"steps\":[],\"safetyWarnings\":{\"hazardousMaterials\":[],\"ageRelated\":false,\"generalWarnings\":[]},\"imageDescriptions\":[]}\n```"
	got, err := extract.Extract(text)
	require.NoError(t, err)
	assert.Equal(t, "fenced", got.Strategy)

	res, err := diagnosis.ValidateResult(got.Raw)
	require.NoError(t, err)
	assert.Equal(t, "x", res.Summary)
}

func TestExtract_UntaggedFence(t *testing.T) {
	got, err := extract.Extract("Sure!\n```\n{\"summary\": \"untagged\"}\n```\nAnything else?")
	require.NoError(t, err)
	assert.Equal(t, "fenced", got.Strategy)
	assert.JSONEq(t, `{"summary":"untagged"}`, string(got.Raw))
}

func TestExtract_BracesFallback(t *testing.T) {
	got, err := extract.Extract(`The analysis follows. {"summary": "y", "tools": ["wrench"]} Hope this helps!`)
	require.NoError(t, err)
	assert.Equal(t, "braces", got.Strategy)
	assert.JSONEq(t, `{"summary":"y","tools":["wrench"]}`, string(got.Raw))
}

func TestExtract_BrokenFenceFallsThroughToBraces(t *testing.T) {
	text := "```json\n{\"summary\": \"z\",}\n```\nCorrected: {\"summary\": \"z\"}"
	_, err := extract.Extract(text)
	// first { is inside the broken fence, so the brace slice spans both objects
	require.Error(t, err)

	text = "```json\nsummary: z\n```\n{\"summary\": \"z\"}"
	got, err := extract.Extract(text)
	require.NoError(t, err)
	assert.Equal(t, "braces", got.Strategy)
}

func TestExtract_NoBraces(t *testing.T) {
	_, err := extract.Extract("I could not see the image clearly, please retake the photo.")
	require.Error(t, err)

	var e *diagnosis.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, diagnosis.KindExtraction, e.Kind)
	assert.Contains(t, e.Details(), "no JSON object found")
}

func TestExtract_CarriesParseFailure(t *testing.T) {
	_, err := extract.Extract(`prefix {"summary": oops} suffix`)
	assert.Equal(t, diagnosis.KindExtraction, diagnosis.KindOf(err))
	assert.Contains(t, err.Error(), "invalid character")
}

func TestExtractWith_StrategyOrder(t *testing.T) {
	var calls []string
	mk := func(name string, ok bool) extract.Strategy {
		return extract.Strategy{Name: name, Try: func(string) (json.RawMessage, error) {
			calls = append(calls, name)
			if ok {
				return json.RawMessage(`{}`), nil
			}
			return nil, errors.New(name + " failed")
		}}
	}
	got, err := extract.ExtractWith([]extract.Strategy{mk("a", false), mk("b", true), mk("c", true)}, "")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Strategy)
	assert.Equal(t, []string{"a", "b"}, calls)
}
