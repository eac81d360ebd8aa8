package runtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// ExtractOutput returns the structured output contained in a /run response body.
//
// Events are searched newest first. The first event whose content role is
// "model" wins and its first text part is decoded as JSON. When there is no
// model event, the newest event with a non-null "output" field is returned.
func ExtractOutput(body []byte) (json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not JSON", ErrInvalidResponse)
	}

	events := gjson.ParseBytes(body)
	if !events.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of events, got %s", ErrInvalidResponse, events.Type)
	}

	list := events.Array()
	if len(list) == 0 {
		return nil, ErrEmptyResponse
	}

	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Get("content.role").String() != RoleModel {
			continue
		}
		text := list[i].Get("content.parts.0.text")
		if text.Type != gjson.String {
			return nil, fmt.Errorf("%w: model event has no text part", ErrInvalidPayload)
		}
		return DecodePayload(text.String())
	}

	for i := len(list) - 1; i >= 0; i-- {
		output := list[i].Get("output")
		if output.Exists() && output.Type != gjson.Null {
			return json.RawMessage(output.Raw), nil
		}
	}

	return nil, ErrNoFinalOutput
}

// DecodePayload turns a model's text answer into JSON. A surrounding Markdown
// code fence (```json ... ```) is removed first.
func DecodePayload(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	if s == "" || !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, truncate(text, 200))
	}

	return json.RawMessage(s), nil
}

// EventCount returns the number of events in a /run response body, or 0.
func EventCount(body []byte) int {
	return int(gjson.GetBytes(body, "#").Int())
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
