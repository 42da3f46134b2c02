package cliparam

import (
	"cmp"
	"slices"
)

// RawToken is one value taken from the command line by the tokenizer.
type RawToken struct {
	Name  string // Option name or alias as typed. Empty for positional arguments.
	Value string // Raw string value
	Index int    // Sequence index on the command line
}

// Option is a convenience constructor for an option token.
func Option(name, value string, index int) RawToken {
	return RawToken{Name: name, Value: value, Index: index}
}

// Argument is a convenience constructor for a positional token.
func Argument(value string, index int) RawToken {
	return RawToken{Value: value, Index: index}
}

func sortedByIndex(tokens []RawToken) []RawToken {
	out := slices.Clone(tokens)
	slices.SortStableFunc(out, func(a, b RawToken) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return out
}

func tokenValues(tokens []RawToken) []string {
	values := make([]string, len(tokens))
	for i, t := range tokens {
		values[i] = t.Value
	}
	return values
}
