package cliparam

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// Sentinel Errors
///////////////////////////////////////////////////////////////////////////////

var (
	ErrConversionFailed = errors.New("parameter conversion failed")
	ErrValidationFailed = errors.New("parameter validation failed")

	ErrMissingValue      = errors.New("no value supplied")
	ErrTooManyValues     = errors.New("more than one value supplied for a single-valued parameter")
	ErrUnsupportedType   = errors.New("unsupported target type")
	ErrInvalidJSON       = errors.New("value is not valid JSON")
	ErrNilTargetType     = errors.New("target type is nil")
	ErrInvalidDescriptor = errors.New("invalid parameter descriptor")

	ErrAmbiguousArguments         = errors.New("more than one multi-valued positional argument declared")
	ErrConverterAlreadyRegistered = errors.New("a converter for this type is already registered")

	ErrCapabilityNotFound = errors.New("capability is not registered")

	ErrInvalidRuleTag            = errors.New("invalid rule tag")
	ErrInvalidRuleArgs           = errors.New("invalid rule arguments")
	ErrRuleFactoryAlreadyDefined = errors.New("a rule factory with this name is already registered")
)

///////////////////////////////////////////////////////////////////////////////
// ConversionError
///////////////////////////////////////////////////////////////////////////////

// ConversionError reports a raw token that could not be converted into the
// declared target type. Value is the offending token, empty when the failure
// is about the number of tokens rather than their content.
type ConversionError struct {
	Value    string
	TypeName string
	Err      error
}

func newConversionError(value string, typ reflect.Type, err error) *ConversionError {
	return &ConversionError{Value: value, TypeName: typeName(typ), Err: err}
}

// Error implements the error interface
func (ce *ConversionError) Error() string {
	if ce.Value == "" {
		return fmt.Sprintf("cannot convert to %s: %v", ce.TypeName, ce.Err)
	}
	return fmt.Sprintf("cannot convert %q to %s: %v", ce.Value, ce.TypeName, ce.Err)
}

func (ce *ConversionError) Unwrap() error {
	return ce.Err
}

///////////////////////////////////////////////////////////////////////////////
// CapabilityError
///////////////////////////////////////////////////////////////////////////////

// CapabilityError is returned when a validation rule asks for a collaborator
// that the resolver does not know about. It always matches
// ErrCapabilityNotFound and is never aggregated into a BindError.
type CapabilityError struct {
	Parameter string
	TypeName  string
}

func (ce *CapabilityError) Error() string {
	return fmt.Sprintf("parameter %s: capability %s is not registered", ce.Parameter, ce.TypeName)
}

func (ce *CapabilityError) Unwrap() error {
	return ErrCapabilityNotFound
}

///////////////////////////////////////////////////////////////////////////////
// Bind failures
///////////////////////////////////////////////////////////////////////////////

// Stage identifies which step of the pipeline rejected a parameter.
type Stage int

const (
	StageConversion Stage = iota
	StageValidation
)

func (s Stage) String() string {
	switch s {
	case StageConversion:
		return "conversion"
	case StageValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// BindResult is the call level classification of a failed Bind.
type BindResult int

const (
	ConversionFailed BindResult = iota + 1
	ValidationFailed
)

func (r BindResult) String() string {
	switch r {
	case ConversionFailed:
		return "ConversionFailed"
	case ValidationFailed:
		return "ValidationFailed"
	default:
		return "Unknown"
	}
}

// ParameterFailure is a single rejected parameter.
type ParameterFailure struct {
	Parameter string // Name of the declared parameter
	Stage     Stage  // Conversion or Validation
	Reason    string // Human readable message
	Err       error  // Underlying error returned by the converter or rule
}

func (pf ParameterFailure) String() string {
	return fmt.Sprintf("%s (%s): %s", pf.Parameter, pf.Stage, pf.Reason)
}

// BindError aggregates every ParameterFailure collected during one Bind
// call, in declaration order of the failing parameters.
type BindError struct {
	failures []ParameterFailure
}

func newBindError(failures []ParameterFailure) *BindError {
	return &BindError{failures: failures}
}

// Error implements the error interface
func (be *BindError) Error() string {
	parts := make([]string, 0, len(be.failures))
	for _, f := range be.failures {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%s: %s", be.sentinel().Error(), strings.Join(parts, "; "))
}

// Result reports ConversionFailed when at least one parameter could not be
// converted, ValidationFailed otherwise.
func (be *BindError) Result() BindResult {
	for _, f := range be.failures {
		if f.Stage == StageConversion {
			return ConversionFailed
		}
	}
	return ValidationFailed
}

// Failures returns a copy of the collected failures.
func (be *BindError) Failures() []ParameterFailure {
	out := make([]ParameterFailure, len(be.failures))
	copy(out, be.failures)
	return out
}

// For returns the failure recorded for the named parameter, if any.
func (be *BindError) For(parameter string) (ParameterFailure, bool) {
	for _, f := range be.failures {
		if f.Parameter == parameter {
			return f, true
		}
	}
	return ParameterFailure{}, false
}

// Is lets errors.Is match ErrConversionFailed or ErrValidationFailed
// against the aggregate.
func (be *BindError) Is(target error) bool {
	switch target {
	case ErrConversionFailed:
		return be.Result() == ConversionFailed
	case ErrValidationFailed:
		for _, f := range be.failures {
			if f.Stage == StageValidation {
				return true
			}
		}
	}
	return false
}

func (be *BindError) sentinel() error {
	if be.Result() == ConversionFailed {
		return ErrConversionFailed
	}
	return ErrValidationFailed
}

// AsBindError extracts a *BindError from err.
func AsBindError(err error) (*BindError, bool) {
	var be *BindError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
