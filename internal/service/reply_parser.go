package service

import (
	"encoding/json"
	"strings"
)

// ParseReply extracts the action requested by a model reply. The first
// balanced JSON object in reply that decodes with a non-empty "action" wins.
// Without one, the user's query is checked for intent keywords, which yields
// a kind-only action or nil.
//
// A recognised kind whose details are malformed is returned together with an
// error wrapping ErrActionParse. Unknown kinds are returned as-is.
func ParseReply(reply, query string) (*ChatAction, error) {
	if action := firstAction(reply); action != nil {
		return action, action.decodeDetails()
	}

	if kind := detectIntent(query); kind != "" {
		return &ChatAction{Kind: kind}, nil
	}
	return nil, nil
}

// firstAction looks inside spans that are not actions themselves, so an
// action wrapped in braced prose is still found.
func firstAction(s string) *ChatAction {
	for _, candidate := range jsonObjects(s) {
		var action ChatAction
		if err := json.Unmarshal([]byte(candidate), &action); err == nil && action.Kind != "" {
			return &action
		}
		if nested := firstAction(candidate[1 : len(candidate)-1]); nested != nil {
			return nested
		}
	}
	return nil
}

func detectIntent(query string) ActionKind {
	lowered := strings.ToLower(query)
	switch {
	case strings.Contains(lowered, "remove"), strings.Contains(lowered, "delete"):
		return ActionRemove
	case strings.Contains(lowered, "add goal"), strings.Contains(lowered, "create goal"):
		return ActionAddGoal
	case strings.Contains(lowered, "update goal"), strings.Contains(lowered, "edit goal"):
		return ActionUpdateGoal
	}
	return ""
}

// jsonObjects returns every top-level balanced {...} span of s in order.
// Braces inside string literals are ignored.
func jsonObjects(s string) []string {
	var (
		objects  []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			// Quotes in prose outside an object do not open a string.
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				objects = append(objects, s[start:i+1])
				start = -1
			}
		}
	}

	// An unclosed brace was prose; objects may still follow it.
	if depth > 0 {
		objects = append(objects, jsonObjects(s[start+1:])...)
	}
	return objects
}
