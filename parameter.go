package cliparam

import (
	"fmt"
	"reflect"
	"slices"
)

// Kind tells whether a parameter is supplied by name or by position.
type Kind int

const (
	KindOption Kind = iota
	KindArgument
)

func (k Kind) String() string {
	switch k {
	case KindOption:
		return "option"
	case KindArgument:
		return "argument"
	default:
		return "unknown"
	}
}

// ParameterDescriptor describes one declared parameter of a command.
//
// Descriptors are built once when the command model is created and are only
// read afterwards; the binder never mutates them, so one descriptor set may
// be shared by any number of concurrent Bind calls.
type ParameterDescriptor struct {
	Name       string       // Name of the parameter, also the key in Values
	Kind       Kind         // Option or positional argument
	Aliases    []string     // Additional option names (e.g. "n" for "name"). Options only.
	Ordinal    int          // Position among the positional arguments. Arguments only.
	Type       reflect.Type // Scalar type, or a slice of a scalar for multi-valued parameters
	Default    any          // Value used when no token is supplied and HasDefault is set
	HasDefault bool         // Whether Default is meaningful
	Specs      []any        // Ordered validation specs; unrecognised entries are ignored
}

// DescriptorOption customises a descriptor built by NewOption or NewArgument.
type DescriptorOption func(*ParameterDescriptor)

// WithDefault marks the parameter optional with the given default value.
func WithDefault(value any) DescriptorOption {
	return func(p *ParameterDescriptor) {
		p.Default = value
		p.HasDefault = true
	}
}

// WithAliases adds alternative option names.
func WithAliases(aliases ...string) DescriptorOption {
	return func(p *ParameterDescriptor) {
		p.Aliases = append(p.Aliases, aliases...)
	}
}

// WithSpecs appends validation specs: ValidatorRule values, RuleTag strings
// or any other metadata (which the default provider skips).
func WithSpecs(specs ...any) DescriptorOption {
	return func(p *ParameterDescriptor) {
		p.Specs = append(p.Specs, specs...)
	}
}

// NewOption builds a named option descriptor whose target type is T.
func NewOption[T any](name string, opts ...DescriptorOption) ParameterDescriptor {
	p := ParameterDescriptor{
		Name: name,
		Kind: KindOption,
		Type: reflect.TypeOf((*T)(nil)).Elem(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// NewArgument builds a positional argument descriptor whose target type is T.
func NewArgument[T any](name string, ordinal int, opts ...DescriptorOption) ParameterDescriptor {
	p := ParameterDescriptor{
		Name:    name,
		Kind:    KindArgument,
		Ordinal: ordinal,
		Type:    reflect.TypeOf((*T)(nil)).Elem(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// IsMultiValued reports whether the parameter collects every matching token
// into a slice.
func (p *ParameterDescriptor) IsMultiValued() bool {
	return isMultiValuedType(p.Type)
}

// Matches reports whether an option token named name belongs to p.
func (p *ParameterDescriptor) Matches(name string) bool {
	if p.Kind != KindOption {
		return false
	}
	return p.Name == name || slices.Contains(p.Aliases, name)
}

func (p *ParameterDescriptor) String() string {
	if p.Kind == KindArgument {
		return fmt.Sprintf("argument %s[%d] %s", p.Name, p.Ordinal, typeName(p.Type))
	}
	return fmt.Sprintf("option %s %s", p.Name, typeName(p.Type))
}

// validateDescriptors checks the descriptor set once per Bind call.
// Problems here are programming errors in the command model, not user input.
func validateDescriptors(params []ParameterDescriptor) error {
	seen := make(map[string]bool, len(params))
	optionNames := make(map[string]string, len(params))
	multiArgs := 0

	for i := range params {
		p := &params[i]
		if p.Name == "" {
			return fmt.Errorf("%w: parameter #%d has no name", ErrInvalidDescriptor, i)
		}
		if p.Type == nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidDescriptor, p.Name, ErrNilTargetType)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate parameter name %s", ErrInvalidDescriptor, p.Name)
		}
		seen[p.Name] = true

		if p.Kind == KindOption {
			if err := claimOptionNames(optionNames, p); err != nil {
				return err
			}
		}

		if p.Kind == KindArgument && p.IsMultiValued() {
			multiArgs++
		}
	}

	if multiArgs > 1 {
		return ErrAmbiguousArguments
	}
	return nil
}

// claimOptionNames registers the name and aliases of option p in owners,
// rejecting empty aliases and names already used by another option.
func claimOptionNames(owners map[string]string, p *ParameterDescriptor) error {
	for i, name := range append([]string{p.Name}, p.Aliases...) {
		if name == "" {
			return fmt.Errorf("%w: option %s has an empty alias", ErrInvalidDescriptor, p.Name)
		}
		owner, taken := owners[name]
		if taken && owner != p.Name {
			if i == 0 {
				return fmt.Errorf("%w: option name %s is already an alias of %s", ErrInvalidDescriptor, name, owner)
			}
			return fmt.Errorf("%w: alias %s of %s is already used by %s", ErrInvalidDescriptor, name, p.Name, owner)
		}
		owners[name] = p.Name
	}
	return nil
}
