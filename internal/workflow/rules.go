package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"recruitflow/internal/document"
)

// ValidCounter is implemented by list section values that know how many of
// their entries are valid, such as imported candidate lists.
type ValidCounter interface {
	CountValid() int
}

// Always is a predicate that is always true.
func Always(document.Document) bool {
	return true
}

// All combines predicates; the result is true when every predicate is true.
func All(preds ...Predicate) Predicate {
	return func(doc document.Document) bool {
		for _, p := range preds {
			if p != nil && !p(doc) {
				return false
			}
		}
		return true
	}
}

// Required is true when each field is present and non-empty. Strings must be
// non-blank, lists must be non-empty, nil never counts.
func Required(section string, fields ...string) Predicate {
	return func(doc document.Document) bool {
		for _, f := range fields {
			v, ok := doc.Field(section, f)
			if !ok || isEmpty(v) {
				return false
			}
		}
		return true
	}
}

// MinItems is true when the list field holds at least n non-blank strings.
func MinItems(section, field string, n int) Predicate {
	return func(doc document.Document) bool {
		count := 0
		for _, s := range doc.Strings(section, field) {
			if strings.TrimSpace(s) != "" {
				count++
			}
		}
		return count >= n
	}
}

// IsTrue is true when the boolean field is true.
func IsTrue(section, field string) Predicate {
	return func(doc document.Document) bool {
		return doc.Bool(section, field)
	}
}

// AnyValid is true when the list section has at least one valid entry.
//
// The section value may implement [ValidCounter], or be a []any of objects
// with a boolean "is_valid" field as decoded from JSON.
func AnyValid(section string) Predicate {
	return func(doc document.Document) bool {
		v, ok := doc.Section(section)
		if !ok {
			return false
		}
		switch list := v.(type) {
		case ValidCounter:
			return list.CountValid() > 0
		case []any:
			for _, item := range list {
				if obj, ok := item.(map[string]any); ok {
					if valid, _ := obj["is_valid"].(bool); valid {
						return true
					}
				}
			}
		}
		return false
	}
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}

// ParseRule builds a predicate from its textual form, as used by workflow
// manifests. It also returns the document sections the rule reads.
//
// Supported rules:
//
//	always                          (or empty)
//	required:<section>.<field>[|<section>.<field>...]
//	min:<section>.<field>:<n>
//	true:<section>.<field>
//	any-valid:<section>
func ParseRule(rule string) (Predicate, []string, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" || rule == "always" {
		return nil, nil, nil
	}

	kind, arg, ok := strings.Cut(rule, ":")
	if !ok || strings.TrimSpace(arg) == "" {
		return nil, nil, fmt.Errorf("rule %q: missing argument", rule)
	}

	switch kind {
	case "required":
		var preds []Predicate
		var sections []string
		for _, ref := range strings.Split(arg, "|") {
			section, field, err := splitRef(ref)
			if err != nil {
				return nil, nil, fmt.Errorf("rule %q: %w", rule, err)
			}
			preds = append(preds, Required(section, field))
			sections = appendUnique(sections, section)
		}
		return All(preds...), sections, nil

	case "min":
		ref, countStr, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, nil, fmt.Errorf("rule %q: want min:<section>.<field>:<n>", rule)
		}
		section, field, err := splitRef(ref)
		if err != nil {
			return nil, nil, fmt.Errorf("rule %q: %w", rule, err)
		}
		n, err := strconv.Atoi(countStr)
		if err != nil || n < 0 {
			return nil, nil, fmt.Errorf("rule %q: invalid count %q", rule, countStr)
		}
		return MinItems(section, field, n), []string{section}, nil

	case "true":
		section, field, err := splitRef(arg)
		if err != nil {
			return nil, nil, fmt.Errorf("rule %q: %w", rule, err)
		}
		return IsTrue(section, field), []string{section}, nil

	case "any-valid":
		section := strings.TrimSpace(arg)
		return AnyValid(section), []string{section}, nil
	}

	return nil, nil, fmt.Errorf("unknown rule kind %q", kind)
}

func splitRef(ref string) (string, string, error) {
	section, field, ok := strings.Cut(strings.TrimSpace(ref), ".")
	section, field = strings.TrimSpace(section), strings.TrimSpace(field)
	if !ok || section == "" || field == "" {
		return "", "", fmt.Errorf("invalid field reference %q: want <section>.<field>", ref)
	}
	return section, field, nil
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
