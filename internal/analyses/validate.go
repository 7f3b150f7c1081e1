package analyses

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ValidateResult parses a raw model answer and checks it against the Result contract.
// A surrounding markdown code fence is tolerated; nothing else is repaired or coerced.
// Unknown keys are dropped. The first violation is reported with its field path.
func ValidateResult(raw string) (Result, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return Result{}, schemaError("", "empty response")
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Result{}, &Error{Kind: KindSchemaValidationFailed, Msg: "response is not valid JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Result{}, schemaError("", "unexpected data after JSON object")
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return Result{}, schemaError("", "response must be a JSON object")
	}

	var (
		res Result
		err error
	)
	if res.MatchScore, err = scoreField(obj); err != nil {
		return Result{}, err
	}
	if res.SkillsMatched, err = stringListField(obj, "skillsMatched"); err != nil {
		return Result{}, err
	}
	if res.MissingSkills, err = stringListField(obj, "missingSkills"); err != nil {
		return Result{}, err
	}
	if res.Suggestions, err = stringListField(obj, "suggestions"); err != nil {
		return Result{}, err
	}
	if res.ExtraEdgeSuggestions, err = edgeField(obj); err != nil {
		return Result{}, err
	}
	return res, nil
}

func scoreField(obj map[string]any) (float64, error) {
	v, ok := obj["matchScore"]
	if !ok {
		return 0, schemaError("matchScore", "is required")
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, schemaError("matchScore", "must be a number, got "+jsonType(v))
	}
	score, err := num.Float64()
	if err != nil {
		return 0, schemaError("matchScore", "must be a finite number")
	}
	if err := checkScore(score); err != nil {
		return 0, err
	}
	return score, nil
}

func stringListField(obj map[string]any, key string) ([]string, error) {
	items, err := listField(obj, key)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, schemaError(fmt.Sprintf("%s[%d]", key, i), "must be a string, got "+jsonType(item))
		}
		out = append(out, s)
	}
	return out, nil
}

func edgeField(obj map[string]any) ([]EdgeSuggestion, error) {
	const key = "extraEdgeSuggestions"
	items, err := listField(obj, key)
	if err != nil {
		return nil, err
	}
	out := make([]EdgeSuggestion, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s[%d]", key, i)
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, schemaError(path, "must be an object, got "+jsonType(item))
		}
		title, err := stringMember(entry, path, "title")
		if err != nil {
			return nil, err
		}
		desc, err := stringMember(entry, path, "description")
		if err != nil {
			return nil, err
		}
		out = append(out, EdgeSuggestion{Title: title, Description: desc})
	}
	return out, nil
}

func listField(obj map[string]any, key string) ([]any, error) {
	v, ok := obj[key]
	if !ok {
		return nil, schemaError(key, "is required")
	}
	items, ok := v.([]any)
	if !ok {
		return nil, schemaError(key, "must be an array, got "+jsonType(v))
	}
	return items, nil
}

func stringMember(entry map[string]any, path, key string) (string, error) {
	v, ok := entry[key]
	if !ok {
		return "", schemaError(path+"."+key, "is required")
	}
	s, ok := v.(string)
	if !ok {
		return "", schemaError(path+"."+key, "must be a string, got "+jsonType(v))
	}
	return s, nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// stripCodeFence removes a ```json ... ``` wrapper some models add despite instructions.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimSpace(s), "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
