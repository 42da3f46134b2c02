package cliparam

import (
	"cmp"
	"slices"
)

// tokenSelection maps each declared parameter (by index into the declared
// slice) to the raw tokens that belong to it, in command line order.
type tokenSelection map[int][]RawToken

// selectTokens distributes options by name/alias and positional arguments
// by ordinal.
//
// Arguments are handed out in ordinal order. A multi-valued positional takes
// every argument that is not needed by the scalar positionals declared after
// it, so a trailing multi-valued positional absorbs all remaining arguments.
// Arguments left over once every positional has been served are ignored.
func selectTokens(params []ParameterDescriptor, options, arguments []RawToken) tokenSelection {
	selection := make(tokenSelection, len(params))

	for _, token := range sortedByIndex(options) {
		for i := range params {
			if params[i].Matches(token.Name) {
				selection[i] = append(selection[i], token)
				break
			}
		}
	}

	positionals := positionalOrder(params)
	args := sortedByIndex(arguments)

	next := 0
	for n, i := range positionals {
		if next >= len(args) {
			break
		}

		if !params[i].IsMultiValued() {
			selection[i] = append(selection[i], args[next])
			next++
			continue
		}

		// Leave one argument for each scalar positional that follows
		reserved := len(positionals) - n - 1
		take := len(args) - next - reserved
		if take <= 0 {
			continue
		}
		selection[i] = append(selection[i], args[next:next+take]...)
		next += take
	}

	return selection
}

// positionalOrder returns the indexes of the argument descriptors sorted by
// ordinal, keeping declaration order for equal ordinals.
func positionalOrder(params []ParameterDescriptor) []int {
	var order []int
	for i := range params {
		if params[i].Kind == KindArgument {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(params[a].Ordinal, params[b].Ordinal)
	})
	return order
}
