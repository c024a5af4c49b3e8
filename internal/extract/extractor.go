package extract

import (
	"strings"

	"github.com/codefactory/codefactory/internal/params"
)

// Extract applies compiled rules against edited source text and recovers a
// parameter map. It is a pure function of (source, rules): no state persists
// across calls.
//
// The first successful match per parameter name wins; rules that yield no
// match are omitted from the result (the caller decides whether a missing
// required parameter is fatal). Loop rules accumulate every non-overlapping
// match in source order.
func Extract(source string, rules []*Rule) map[string]params.Value {
	result := make(map[string]params.Value)

	for _, rule := range rules {
		if _, done := result[rule.Param]; done {
			continue
		}

		switch rule.Kind {
		case Scalar:
			if m := rule.Pattern.FindStringSubmatch(source); m != nil {
				result[rule.Param] = params.String(m[1])
			}
		case LoopFields:
			if items := extractLoopFields(source, rule); items != nil {
				result[rule.Param] = params.List(items...)
			}
		case LoopLines:
			if items, ok := extractLoopLines(source, rule); ok {
				result[rule.Param] = params.List(items...)
			}
		}
	}

	return result
}

func extractLoopFields(source string, rule *Rule) []params.Value {
	matches := rule.Pattern.FindAllStringSubmatch(source, -1)
	if matches == nil {
		return nil
	}

	items := make([]params.Value, 0, len(matches))
	for _, m := range matches {
		record := make(map[string]params.Value, len(rule.Fields))
		for i, field := range rule.Fields {
			if i+1 < len(m) {
				record[field] = params.String(m[i+1])
			}
		}
		items = append(items, params.Map(record))
	}
	return items
}

// extractLoopLines recovers simple loop items structurally: it finds the
// literal anchors that enclose the rendered loop and splits the interior
// into one item per line, trimming decoration and trailing terminators.
// A loop at the start or end of the template has only one anchor; the
// missing side falls back to the corresponding edge of the source.
func extractLoopLines(source string, rule *Rule) ([]params.Value, bool) {
	lines := strings.Split(source, "\n")

	start := 0
	if rule.Before != "" {
		found := -1
		for i, line := range lines {
			if strings.TrimSpace(line) == rule.Before {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, false
		}
		start = found + 1
	}

	end := len(lines)
	if rule.After != "" {
		found := -1
		for i := start; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == rule.After {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, false
		}
		end = found
	}

	items := make([]params.Value, 0, end-start)
	for _, line := range lines[start:end] {
		item := strings.TrimSpace(line)
		if item == "" {
			continue
		}
		item = strings.TrimSuffix(item, ";")
		item = strings.TrimSuffix(item, ",")
		if rule.ItemSuffix != "" {
			item = strings.TrimSuffix(item, strings.TrimSuffix(strings.TrimSuffix(rule.ItemSuffix, ";"), ","))
		}
		if rule.ItemPrefix != "" {
			item = strings.TrimPrefix(item, rule.ItemPrefix)
		}
		items = append(items, params.String(item))
	}
	return items, true
}
