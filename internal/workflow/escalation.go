package workflow

import "strings"

// ActionOutput is implemented by review results that expose their form
// output as a map.
type ActionOutput interface {
	Output() map[string]any
}

// ActionResult is a review result carrying its form output as a field.
type ActionResult struct {
	Output map[string]any `json:"output"`
}

// ParseReview extracts the comma-separated intents string from a reviewer
// payload. Accepted shapes:
//
//   - {"output": {"Intents": "..."}}
//   - {"Intents": "..."}
//   - an ActionOutput or ActionResult
//
// Anything else yields "".
func ParseReview(payload any) string {
	switch p := payload.(type) {
	case map[string]any:
		if out, ok := p["output"]; ok {
			return intentsOf(out)
		}
		return stringOf(p["Intents"])
	case map[string]string:
		return p["Intents"]
	case ActionOutput:
		return stringOf(p.Output()["Intents"])
	case ActionResult:
		return stringOf(p.Output["Intents"])
	case *ActionResult:
		if p == nil {
			return ""
		}
		return stringOf(p.Output["Intents"])
	default:
		return ""
	}
}

// SplitCategories splits a comma-separated list, trimming whitespace and
// dropping empty entries. The result is never nil.
func SplitCategories(s string) []string {
	out := []string{}
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intentsOf(output any) string {
	switch o := output.(type) {
	case map[string]any:
		return stringOf(o["Intents"])
	case map[string]string:
		return o["Intents"]
	default:
		return ""
	}
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func joinCategories(c []string) string {
	return strings.Join(c, ",")
}
