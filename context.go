package cliparam

import (
	"reflect"
)

// ValidationContext is handed to every rule evaluated for one parameter.
// It lives for the validation of that parameter only.
type ValidationContext struct {
	Parameter *ParameterDescriptor // Descriptor of the parameter being validated
	Value     any                  // Converted value

	resolver CapabilityResolver
	lookups  *lookupState
}

// lookupState is shared by a context and every copy made with WithValue, so
// a miss inside an element rule is still seen by the binder.
type lookupState struct {
	missing *CapabilityError
}

func newValidationContext(p *ParameterDescriptor, value any, resolver CapabilityResolver) *ValidationContext {
	return &ValidationContext{
		Parameter: p,
		Value:     value,
		resolver:  resolver,
		lookups:   &lookupState{},
	}
}

// Resolve looks up the collaborator registered for typ. A miss returns a
// *CapabilityError and is recorded on the context: the Bind call aborts
// whatever the rule goes on to return.
func (vctx *ValidationContext) Resolve(typ reflect.Type) (any, error) {
	if vctx.resolver != nil {
		if instance, ok := vctx.resolver.Resolve(typ); ok {
			return instance, nil
		}
	}
	return nil, vctx.missingCapability(typ)
}

// WithValue returns a copy of the context carrying value instead. Used to
// evaluate element rules against the items of a multi-valued parameter.
func (vctx *ValidationContext) WithValue(value any) *ValidationContext {
	return &ValidationContext{
		Parameter: vctx.Parameter,
		Value:     value,
		resolver:  vctx.resolver,
		lookups:   vctx.lookups,
	}
}

func (vctx *ValidationContext) missingCapability(typ reflect.Type) *CapabilityError {
	ce := &CapabilityError{Parameter: vctx.Parameter.Name, TypeName: typeName(typ)}
	if vctx.lookups.missing == nil {
		vctx.lookups.missing = ce
	}
	return ce
}

// capabilityError returns the first failed lookup, or nil.
func (vctx *ValidationContext) capabilityError() error {
	if vctx.lookups.missing == nil {
		return nil
	}
	return vctx.lookups.missing
}

// Resolve is the typed form of ValidationContext.Resolve.
func Resolve[T any](vctx *ValidationContext) (T, error) {
	var zero T

	instance, err := vctx.Resolve(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, vctx.missingCapability(reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}
