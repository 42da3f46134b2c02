package cliparam

import (
	"fmt"
	"reflect"
	"sync"
)

///////////////////////////////////////////////////////////////////////////////
// ValueConverter Interface
///////////////////////////////////////////////////////////////////////////////

// ValueConverter turns the raw tokens selected for one parameter into a
// value of the declared target type.
//
// Scalar targets consume exactly one token. Slice targets (other than byte
// slices and slice types with a registered converter) consume every token,
// converting each one in order. A failure is
// always reported as a *ConversionError carrying the offending token.
type ValueConverter interface {
	Convert(tokens []string, typ reflect.Type) (any, error)
}

// ConvertFunc converts a single raw token into a value of the type it was
// registered for.
type ConvertFunc func(value string) (any, error)

///////////////////////////////////////////////////////////////////////////////
// ConverterRegistry
///////////////////////////////////////////////////////////////////////////////

// ConverterRegistry holds custom element converters keyed by target type.
// Registered converters take precedence over the built-in kinds.
//
// The registry is safe for concurrent use; lookups take a read lock only.
type ConverterRegistry struct {
	mu sync.RWMutex
	m  map[reflect.Type]ConvertFunc
}

type ConverterRegistryOpts struct {
	Converters map[reflect.Type]ConvertFunc
}

func NewConverterRegistry(opts ConverterRegistryOpts) (*ConverterRegistry, error) {
	reg := &ConverterRegistry{
		m: make(map[reflect.Type]ConvertFunc),
	}

	for typ, fn := range opts.Converters {
		if err := reg.Register(typ, fn); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Register adds fn as the converter for typ.
func (reg *ConverterRegistry) Register(typ reflect.Type, fn ConvertFunc) error {
	if typ == nil {
		return ErrNilTargetType
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.m[typ]; exists {
		return fmt.Errorf("%w: %s", ErrConverterAlreadyRegistered, typeName(typ))
	}
	reg.m[typ] = fn
	return nil
}

// Lookup returns the converter registered for typ.
func (reg *ConverterRegistry) Lookup(typ reflect.Type) (ConvertFunc, bool) {
	if reg == nil {
		return nil, false
	}

	reg.mu.RLock()
	defer reg.mu.RUnlock()

	fn, ok := reg.m[typ]
	return fn, ok
}

// RegisterConverter registers a typed converter for T.
func RegisterConverter[T any](reg *ConverterRegistry, fn func(value string) (T, error)) error {
	return reg.Register(reflect.TypeOf((*T)(nil)).Elem(), func(value string) (any, error) {
		return fn(value)
	})
}

///////////////////////////////////////////////////////////////////////////////
// DefaultConverter
///////////////////////////////////////////////////////////////////////////////

// DefaultConverter is the ValueConverter used when none is configured.
type DefaultConverter struct {
	registry *ConverterRegistry
}

// NewDefaultConverter builds a converter that consults registry (which may
// be nil) before falling back to the built-in conversions.
func NewDefaultConverter(registry *ConverterRegistry) *DefaultConverter {
	return &DefaultConverter{registry: registry}
}

// Convert implements ValueConverter.
func (dc *DefaultConverter) Convert(tokens []string, typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, newConversionError("", typ, ErrNilTargetType)
	}

	// A converter registered for a slice type owns the whole value and
	// takes a single token like any scalar.
	_, registered := dc.registry.Lookup(typ)
	if !registered && isMultiValuedType(typ) {
		return dc.convertSlice(tokens, typ)
	}

	switch len(tokens) {
	case 0:
		return nil, newConversionError("", typ, ErrMissingValue)
	case 1:
		v, err := dc.convertScalar(tokens[0], typ)
		if err != nil {
			return nil, newConversionError(tokens[0], typ, err)
		}
		return v.Interface(), nil
	default:
		return nil, newConversionError("", typ, fmt.Errorf("%w: got %d", ErrTooManyValues, len(tokens)))
	}
}

// convertSlice converts every token into an element of typ, stopping at the
// first token that fails.
func (dc *DefaultConverter) convertSlice(tokens []string, typ reflect.Type) (any, error) {
	elemType := typ.Elem()
	slice := reflect.MakeSlice(typ, 0, len(tokens))

	for _, token := range tokens {
		elem, err := dc.convertScalar(token, elemType)
		if err != nil {
			return nil, newConversionError(token, elemType, err)
		}
		slice = reflect.Append(slice, elem)
	}

	return slice.Interface(), nil
}

func (dc *DefaultConverter) convertScalar(token string, typ reflect.Type) (reflect.Value, error) {
	if fn, ok := dc.registry.Lookup(typ); ok {
		return dc.convertRegistered(fn, token, typ)
	}

	if typ.Kind() == reflect.Ptr {
		elem, err := dc.convertScalar(token, typ.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(typ.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	value := reflect.New(typ).Elem()
	if err := setValue(value, token); err != nil {
		return reflect.Value{}, err
	}
	return value, nil
}

func (dc *DefaultConverter) convertRegistered(fn ConvertFunc, token string, typ reflect.Type) (reflect.Value, error) {
	out, err := fn(token)
	if err != nil {
		return reflect.Value{}, err
	}

	if out == nil {
		return reflect.Zero(typ), nil
	}

	value := reflect.ValueOf(out)
	if !value.Type().AssignableTo(typ) {
		return reflect.Value{}, fmt.Errorf(
			"%w: converter for %s returned %s",
			ErrUnsupportedType, typeName(typ), typeName(value.Type()),
		)
	}
	return value, nil
}
