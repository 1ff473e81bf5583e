// Package extract recovers a JSON value from free-form model output.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/bryanwahyu/homefix-vision/internal/domain/diagnosis"
)

// Strategy is one heuristic for pulling JSON out of text.
type Strategy struct {
	Name string
	Try  func(text string) (json.RawMessage, error)
}

var (
	errNoFence  = errors.New("no fenced code block found")
	errNoBraces = errors.New("no JSON object found")

	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
)

// Strategies are tried in order; the first that parses wins.
// The brace strategy can succeed on text that merely happens to be bounded by braces.
var Strategies = []Strategy{
	{Name: "direct", Try: direct},
	{Name: "fenced", Try: fenced},
	{Name: "braces", Try: braces},
}

// Extraction is a recovered JSON value and the strategy that produced it.
type Extraction struct {
	Raw      json.RawMessage
	Strategy string
}

// Extract runs Strategies over text. When all fail it returns an ExtractionError
// carrying the last parse failure.
func Extract(text string) (Extraction, error) {
	return ExtractWith(Strategies, text)
}

func ExtractWith(strategies []Strategy, text string) (Extraction, error) {
	var last error
	for _, s := range strategies {
		raw, err := s.Try(text)
		if err == nil {
			return Extraction{Raw: raw, Strategy: s.Name}, nil
		}
		last = err
	}
	if last == nil {
		last = errNoBraces
	}
	return Extraction{}, diagnosis.ExtractionError(last)
}

func direct(text string) (json.RawMessage, error) {
	return parse(text)
}

func fenced(text string) (json.RawMessage, error) {
	m := fenceRe.FindStringSubmatch(text)
	if m == nil {
		return nil, errNoFence
	}
	return parse(m[1])
}

func braces(text string) (json.RawMessage, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end < start {
		return nil, errNoBraces
	}
	return parse(text[start : end+1])
}

// parse accepts s only if it is exactly one JSON value and returns it compacted.
func parse(s string) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
