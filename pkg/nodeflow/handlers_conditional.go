package nodeflow

import (
	"context"
	"regexp"
	"strings"
)

var containsPattern = regexp.MustCompile(`^contains\(\s*['"](.*)['"]\s*\)$`)

func handleConditional(_ context.Context, req Request) (any, error) {
	input, _ := req.Inputs.First()
	cond := strings.TrimSpace(req.Config.String("condition", ""))
	return ConditionalResult{
		Result: EvaluateCondition(cond, Stringify(input)),
		Output: input,
	}, nil
}

// EvaluateCondition reports whether text satisfies cond. "contains('x')"
// tests for the substring x; any other non-empty condition is itself used as
// the substring. An empty condition is false.
func EvaluateCondition(cond, text string) bool {
	if cond == "" {
		return false
	}
	if m := containsPattern.FindStringSubmatch(cond); m != nil {
		return strings.Contains(text, m[1])
	}
	return strings.Contains(text, cond)
}
