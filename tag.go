package cliparam

import (
	"fmt"
	"strings"
)

// This file contains the decoder for rule tags. A rule tag is a compact,
// declaration-ordered list of validation rules attached to a parameter as a
// single string spec:
//
// Tag grammar:
//     <rule_tag>
// rule_tag:
//     [<rule>]^* // Space separated, evaluated left to right
// rule:
//     <rule_name> | <rule_name>:<rule_args>
// rule_name:
//     <string> // looked up in a RuleFactoryRegistry
// rule_args:
//     '<string>' | <string without whitespace>
//
// Inside quoted args a backslash escapes the next character, so
// pattern:'it\'s' yields the args "it's".

// RuleTag is a validation spec written in the rule tag grammar.
// Example: RuleTag("range:'0,100' even")
type RuleTag string

// ruleTagEntry is one decoded rule of a RuleTag
type ruleTagEntry struct {
	Name string
	Args string
}

// decodeRuleTag splits tag into its rules, preserving declaration order.
func decodeRuleTag(tag string) ([]ruleTagEntry, error) {
	var entries []ruleTagEntry

	i := 0
	for i < len(tag) {
		// Skip whitespace
		for i < len(tag) && isTagSpace(tag[i]) {
			i++
		}
		if i >= len(tag) {
			break
		}

		// Read the rule name up to a colon, whitespace or the end
		start := i
		for i < len(tag) && tag[i] != RuleTagKeyValueDelim[0] && !isTagSpace(tag[i]) {
			i++
		}
		name := tag[start:i]
		if name == "" {
			return nil, fmt.Errorf("%w: empty rule name at offset %d in %q", ErrInvalidRuleTag, start, tag)
		}

		if i >= len(tag) || isTagSpace(tag[i]) {
			entries = append(entries, ruleTagEntry{Name: name})
			continue
		}

		// tag[i] is the key/value delimiter
		i++
		args, next, err := scanRuleArgs(tag, i)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %q: %w", ErrInvalidRuleTag, name, err)
		}
		i = next

		entries = append(entries, ruleTagEntry{Name: name, Args: args})
	}

	return entries, nil
}

// scanRuleArgs reads the args starting at offset start and returns them with
// the offset just past their end.
func scanRuleArgs(tag string, start int) (string, int, error) {
	if start >= len(tag) || isTagSpace(tag[start]) {
		return "", start, fmt.Errorf("missing value after %q", RuleTagKeyValueDelim)
	}

	// Simple value: runs until the next whitespace
	if tag[start] != RuleTagScopeDelimiter {
		end := start
		for end < len(tag) && !isTagSpace(tag[end]) {
			end++
		}
		return tag[start:end], end, nil
	}

	var builder strings.Builder
	escaped := false

	for i := start + 1; i < len(tag); i++ {
		c := tag[i]

		if escaped {
			builder.WriteByte(c)
			escaped = false
			continue
		}

		switch c {
		case '\\':
			escaped = true
		case RuleTagScopeDelimiter:
			return builder.String(), i + 1, nil
		default:
			builder.WriteByte(c)
		}
	}

	return "", len(tag), fmt.Errorf("unterminated %s in %q", sRuleTagScopeDelimiter, tag[start:])
}

func isTagSpace(c byte) bool {
	return strings.IndexByte(ruleTagWhitespaceCutset, c) >= 0
}

// splitRuleArgs splits comma separated args and trims surrounding whitespace.
func splitRuleArgs(args string) []string {
	parts := strings.Split(args, RuleTagArgDelimiter)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
