package cliparam

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"
)

///////////////////////////////////////////////////////////////////////////////
// Helpers
///////////////////////////////////////////////////////////////////////////////

// setValue converts value into the settable field.
//
// Currently supports:
//   - string
//   - int and uint of every width, range checked against the width
//   - float32 and float64
//   - complex64 and complex128
//   - bool, including yes/no/on/off
//   - []byte and json.RawMessage
//   - uuid.UUID, ulid.ULID, time.Time, time.Duration
//   - gjson.Result (the value must be valid JSON)
//   - TextUnmarshaler support for custom types
//   - Interface{} (stored as the raw string)
func setValue(field reflect.Value, value string) error {
	if ok, err := setSpecialValue(field, value); ok {
		return err
	}

	// Check for TextUnmarshaler on the addressable value
	if field.CanAddr() {
		if unmarshaler, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return unmarshaler.UnmarshalText([]byte(value))
		}
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setIntValue(field, value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return setUintValue(field, value)
	case reflect.Float32, reflect.Float64:
		return setFloatValue(field, value)
	case reflect.Complex64, reflect.Complex128:
		return setComplexValue(field, value)
	case reflect.Bool:
		return setBoolValue(field, value)
	case reflect.Slice:
		return setBytesValue(field, value)
	case reflect.Interface:
		return setInterfaceValue(field, value)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, typeName(field.Type()))
	}
}

// setSpecialValue handles the struct-like and named types that must not fall
// through to their underlying kind. It reports whether the type was handled.
func setSpecialValue(field reflect.Value, value string) (bool, error) {
	switch field.Type() {
	case UUIDType:
		id, err := uuid.Parse(value)
		if err != nil {
			return true, fmt.Errorf("error converting value to UUID: %w", err)
		}
		field.Set(reflect.ValueOf(id))
		return true, nil
	case ULIDType:
		id, err := ulid.ParseStrict(value)
		if err != nil {
			return true, fmt.Errorf("error converting value to ULID: %w", err)
		}
		field.Set(reflect.ValueOf(id))
		return true, nil
	case TimeType:
		t, err := parseTime(value)
		if err != nil {
			return true, err
		}
		field.Set(reflect.ValueOf(t))
		return true, nil
	case DurationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return true, fmt.Errorf("error converting value to duration: %w", err)
		}
		field.SetInt(int64(d))
		return true, nil
	case GJSONResultType:
		if !gjson.Valid(value) {
			return true, ErrInvalidJSON
		}
		field.Set(reflect.ValueOf(gjson.Parse(value)))
		return true, nil
	case JSONRawMessageType:
		if !json.Valid([]byte(value)) {
			return true, ErrInvalidJSON
		}
		field.SetBytes([]byte(value))
		return true, nil
	}
	return false, nil
}

func parseTime(value string) (time.Time, error) {
	var (
		t   time.Time
		err error
	)
	for _, layout := range timeLayouts {
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("error converting value to time.Time: %w", err)
}

// Numeric tokens are parsed in base 10 at the bit size of the target, so a
// token that does not fit the declared width is a conversion failure.

func setIntValue(field reflect.Value, value string) error {
	n, err := strconv.ParseInt(value, 10, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("error converting value to int: %w", err)
	}
	field.SetInt(n)
	return nil
}

func setUintValue(field reflect.Value, value string) error {
	n, err := strconv.ParseUint(value, 10, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("error converting value to uint: %w", err)
	}
	field.SetUint(n)
	return nil
}

func setFloatValue(field reflect.Value, value string) error {
	f, err := strconv.ParseFloat(value, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("error converting value to float: %w", err)
	}
	field.SetFloat(f)
	return nil
}

func setComplexValue(field reflect.Value, value string) error {
	c, err := strconv.ParseComplex(value, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("error converting value to complex: %w", err)
	}
	field.SetComplex(c)
	return nil
}

// setBoolValue accepts the flag words yes/no and on/off in any case on top
// of what strconv.ParseBool understands.
func setBoolValue(field reflect.Value, value string) error {
	switch strings.ToLower(value) {
	case "yes", "on":
		field.SetBool(true)
		return nil
	case "no", "off":
		field.SetBool(false)
		return nil
	}

	b, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		return fmt.Errorf("error converting value to bool: %w", err)
	}
	field.SetBool(b)
	return nil
}

// setBytesValue only accepts byte slices; other slices are multi-valued and
// never reach a scalar setter.
func setBytesValue(field reflect.Value, value string) error {
	if field.Type().Elem().Kind() != reflect.Uint8 {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, typeName(field.Type()))
	}
	field.SetBytes([]byte(value))
	return nil
}

func setInterfaceValue(field reflect.Value, value string) error {
	if field.NumMethod() != 0 {
		return fmt.Errorf("%w: interface with methods %s", ErrUnsupportedType, typeName(field.Type()))
	}
	field.Set(reflect.ValueOf(value))
	return nil
}

// isMultiValuedType reports whether t collects several tokens. Byte slices
// and slice types with their own text decoding are scalars.
func isMultiValuedType(t reflect.Type) bool {
	if t == nil || t.Kind() != reflect.Slice {
		return false
	}
	if t.Elem().Kind() == reflect.Uint8 || t == JSONRawMessageType {
		return false
	}
	return !reflect.PointerTo(t).Implements(TextUnmarshalerType)
}
