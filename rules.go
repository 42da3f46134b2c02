package cliparam

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"
)

///////////////////////////////////////////////////////////////////////////////
// Pure rules
///////////////////////////////////////////////////////////////////////////////

// Range accepts numeric values within [min, max]. For multi-valued
// parameters every element must be in range. Integer values are compared
// exactly, without a round trip through float64, and NaN is never in range.
func Range(min, max float64) ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		return eachScalar(vctx.Value, func(v reflect.Value) error {
			for v.Kind() == reflect.Ptr && !v.IsNil() {
				v = v.Elem()
			}

			in, numeric := withinBounds(v, min, max)
			if !numeric {
				return fmt.Errorf("value of type %s is not numeric", typeName(v.Type()))
			}
			if !in {
				if v.CanFloat() && math.IsNaN(v.Float()) {
					return errors.New("value NaN is not a number")
				}
				return fmt.Errorf("value %v must be between %v and %v", v.Interface(), min, max)
			}
			return nil
		})
	})
}

// Min accepts numeric values greater than or equal to min.
func Min(min float64) ValidatorRule {
	return Range(min, math.Inf(1))
}

// Max accepts numeric values less than or equal to max.
func Max(max float64) ValidatorRule {
	return Range(math.Inf(-1), max)
}

// Length bounds the rune count of strings, or the number of elements of a
// multi-valued parameter. A negative max means unbounded.
func Length(min, max int) ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		v := reflect.ValueOf(vctx.Value)
		if !v.IsValid() {
			return errors.New("value is missing")
		}

		var n int
		switch {
		case v.Kind() == reflect.String:
			n = utf8.RuneCountInString(v.String())
		case v.Kind() == reflect.Slice || v.Kind() == reflect.Array:
			n = v.Len()
		default:
			return fmt.Errorf("length of %s cannot be measured", typeName(v.Type()))
		}

		if n < min || (max >= 0 && n > max) {
			if max < 0 {
				return fmt.Errorf("length %d must be at least %d", n, min)
			}
			return fmt.Errorf("length %d must be between %d and %d", n, min, max)
		}
		return nil
	})
}

// Pattern accepts strings matching re.
func Pattern(re *regexp.Regexp) ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		return eachScalar(vctx.Value, func(v reflect.Value) error {
			if v.Kind() != reflect.String {
				return fmt.Errorf("value of type %s is not a string", typeName(v.Type()))
			}
			if !re.MatchString(v.String()) {
				return fmt.Errorf("value %q does not match %s", v.String(), re.String())
			}
			return nil
		})
	})
}

// OneOf accepts values whose string form is one of choices.
func OneOf(choices ...string) ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		return eachScalar(vctx.Value, func(v reflect.Value) error {
			s := fmt.Sprint(v.Interface())
			if !slices.Contains(choices, s) {
				return fmt.Errorf("value %q must be one of: %s", s, strings.Join(choices, ", "))
			}
			return nil
		})
	})
}

// NotEmpty rejects empty strings and empty collections.
func NotEmpty() ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		v := reflect.ValueOf(vctx.Value)
		if !v.IsValid() || v.IsZero() {
			return errors.New("value must not be empty")
		}
		if (v.Kind() == reflect.Slice || v.Kind() == reflect.String) && v.Len() == 0 {
			return errors.New("value must not be empty")
		}
		return nil
	})
}

// Even accepts even integers. For multi-valued parameters every element
// must be even.
func Even() ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		return eachScalar(vctx.Value, func(v reflect.Value) error {
			switch v.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				if v.Int()%2 != 0 {
					return fmt.Errorf("value %d is an uneven number", v.Int())
				}
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
				if v.Uint()%2 != 0 {
					return fmt.Errorf("value %d is an uneven number", v.Uint())
				}
			default:
				return fmt.Errorf("value of type %s is not an integer", typeName(v.Type()))
			}
			return nil
		})
	})
}

// NonNilUUID rejects the nil UUID.
func NonNilUUID() ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		return eachScalar(vctx.Value, func(v reflect.Value) error {
			id, ok := v.Interface().(uuid.UUID)
			if !ok {
				return fmt.Errorf("value of type %s is not a UUID", typeName(v.Type()))
			}
			if id == uuid.Nil {
				return errors.New("UUID must not be nil")
			}
			return nil
		})
	})
}

// NonZeroULID rejects the zero ULID.
func NonZeroULID() ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		return eachScalar(vctx.Value, func(v reflect.Value) error {
			id, ok := v.Interface().(ulid.ULID)
			if !ok {
				return fmt.Errorf("value of type %s is not a ULID", typeName(v.Type()))
			}
			if id == (ulid.ULID{}) {
				return errors.New("ULID must not be zero")
			}
			return nil
		})
	})
}

// PathExists accepts paths that exist on the local filesystem.
func PathExists() ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		return eachScalar(vctx.Value, func(v reflect.Value) error {
			path := fmt.Sprint(v.Interface())
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("the path '%s' is not found", path)
			}
			return nil
		})
	})
}

// JSONHas accepts JSON values (gjson.Result or a JSON string) in which path
// exists.
func JSONHas(path string) ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		return eachScalar(vctx.Value, func(v reflect.Value) error {
			var doc gjson.Result
			switch value := v.Interface().(type) {
			case gjson.Result:
				doc = value
			case string:
				doc = gjson.Parse(value)
			default:
				return fmt.Errorf("value of type %s is not JSON", typeName(v.Type()))
			}

			if !doc.Get(path).Exists() {
				return fmt.Errorf("JSON value has no %q", path)
			}
			return nil
		})
	})
}

///////////////////////////////////////////////////////////////////////////////
// Combinators and collaborator-dependent rules
///////////////////////////////////////////////////////////////////////////////

// Each applies rule to every element of a multi-valued parameter, reporting
// the first failing element.
func Each(rule ValidatorRule) ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		v := reflect.ValueOf(vctx.Value)
		if v.Kind() != reflect.Slice {
			return rule.Validate(vctx)
		}

		for i := 0; i < v.Len(); i++ {
			if err := rule.Validate(vctx.WithValue(v.Index(i).Interface())); err != nil {
				if errors.Is(err, ErrCapabilityNotFound) {
					return err
				}
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	})
}

// Requires builds a collaborator-dependent rule: the service registered as C
// is resolved and handed to check together with the context. A missing C
// aborts the Bind call.
func Requires[C any](check func(c C, vctx *ValidationContext) error) ValidatorRule {
	return RuleFunc(func(vctx *ValidationContext) error {
		c, err := Resolve[C](vctx)
		if err != nil {
			return err
		}
		return check(c, vctx)
	})
}

// PathExistsIn accepts paths that exist in the fs.FS registered with the
// capability resolver.
func PathExistsIn() ValidatorRule {
	return Requires(func(fsys fs.FS, vctx *ValidationContext) error {
		return eachScalar(vctx.Value, func(v reflect.Value) error {
			path := fmt.Sprint(v.Interface())
			if !fs.ValidPath(path) {
				return fmt.Errorf("the path '%s' is not found", path)
			}
			if _, err := fs.Stat(fsys, path); err != nil {
				return fmt.Errorf("the path '%s' is not found", path)
			}
			return nil
		})
	})
}

///////////////////////////////////////////////////////////////////////////////
// Helpers
///////////////////////////////////////////////////////////////////////////////

// eachScalar calls fn once for a scalar value or once per element of a
// multi-valued one, stopping at the first error.
func eachScalar(value any, fn func(v reflect.Value) error) error {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return errors.New("value is missing")
	}

	if !isMultiValuedType(v.Type()) {
		return fn(v)
	}

	for i := 0; i < v.Len(); i++ {
		if err := fn(v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// withinBounds reports whether v lies in [min, max] and whether v is
// numeric at all.
func withinBounds(v reflect.Value, min, max float64) (in bool, numeric bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		return intAtLeast(n, min) && intAtMost(n, max), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := v.Uint()
		return uintAtLeast(n, min) && uintAtMost(n, max), true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return !math.IsNaN(f) && f >= min && f <= max, true
	default:
		return false, false
	}
}

const (
	twoTo63 = float64(1 << 63)
	twoTo64 = float64(1 << 64)
)

// An integer n satisfies n >= bound exactly when n >= ceil(bound), and
// n <= bound exactly when n <= floor(bound). Bounds outside the integer
// range are decided without conversion.

func intAtLeast(n int64, bound float64) bool {
	switch {
	case math.IsNaN(bound) || bound >= twoTo63:
		return false
	case bound < -twoTo63:
		return true
	}
	return n >= int64(math.Ceil(bound))
}

func intAtMost(n int64, bound float64) bool {
	switch {
	case math.IsNaN(bound) || bound < -twoTo63:
		return false
	case bound >= twoTo63:
		return true
	}
	return n <= int64(math.Floor(bound))
}

func uintAtLeast(n uint64, bound float64) bool {
	switch {
	case math.IsNaN(bound) || bound >= twoTo64:
		return false
	case bound <= 0:
		return true
	}
	return n >= uint64(math.Ceil(bound))
}

func uintAtMost(n uint64, bound float64) bool {
	switch {
	case math.IsNaN(bound) || bound < 0:
		return false
	case bound >= twoTo64:
		return true
	}
	return n <= uint64(math.Floor(bound))
}

///////////////////////////////////////////////////////////////////////////////
// Built-in rule tag factories
///////////////////////////////////////////////////////////////////////////////

func builtinRuleFactories() map[string]RuleFactory {
	return map[string]RuleFactory{
		RangeRuleTag: func(args string) (ValidatorRule, error) {
			bounds, err := parseFloats(args, 2)
			if err != nil {
				return nil, err
			}
			return Range(bounds[0], bounds[1]), nil
		},
		MinRuleTag: func(args string) (ValidatorRule, error) {
			bounds, err := parseFloats(args, 1)
			if err != nil {
				return nil, err
			}
			return Min(bounds[0]), nil
		},
		MaxRuleTag: func(args string) (ValidatorRule, error) {
			bounds, err := parseFloats(args, 1)
			if err != nil {
				return nil, err
			}
			return Max(bounds[0]), nil
		},
		LengthRuleTag: func(args string) (ValidatorRule, error) {
			parts := splitRuleArgs(args)
			switch len(parts) {
			case 1:
				n, err := strconv.Atoi(parts[0])
				if err != nil {
					return nil, fmt.Errorf("%w: %w", ErrInvalidRuleArgs, err)
				}
				return Length(n, n), nil
			case 2:
				min, err := strconv.Atoi(parts[0])
				if err != nil {
					return nil, fmt.Errorf("%w: %w", ErrInvalidRuleArgs, err)
				}
				max := -1
				if parts[1] != "" {
					if max, err = strconv.Atoi(parts[1]); err != nil {
						return nil, fmt.Errorf("%w: %w", ErrInvalidRuleArgs, err)
					}
				}
				return Length(min, max), nil
			default:
				return nil, fmt.Errorf("%w: want 'n' or 'min,max', got %q", ErrInvalidRuleArgs, args)
			}
		},
		PatternRuleTag: func(args string) (ValidatorRule, error) {
			if args == "" {
				return nil, fmt.Errorf("%w: pattern is empty", ErrInvalidRuleArgs)
			}
			re, err := regexp.Compile(args)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidRuleArgs, err)
			}
			return Pattern(re), nil
		},
		OneOfRuleTag: func(args string) (ValidatorRule, error) {
			if args == "" {
				return nil, fmt.Errorf("%w: no choices", ErrInvalidRuleArgs)
			}
			return OneOf(strings.Split(args, RuleTagChoiceDelimiter)...), nil
		},
		NotEmptyRuleTag: noArgs(NotEmpty),
		EvenRuleTag:     noArgs(Even),
		UUIDRuleTag:     noArgs(NonNilUUID),
		ULIDRuleTag:     noArgs(NonZeroULID),
		PathRuleTag:     noArgs(PathExists),
		JSONHasRuleTag: func(args string) (ValidatorRule, error) {
			if args == "" {
				return nil, fmt.Errorf("%w: path is empty", ErrInvalidRuleArgs)
			}
			return JSONHas(args), nil
		},
	}
}

func noArgs(rule func() ValidatorRule) RuleFactory {
	return func(args string) (ValidatorRule, error) {
		if args != "" {
			return nil, fmt.Errorf("%w: takes no arguments, got %q", ErrInvalidRuleArgs, args)
		}
		return rule(), nil
	}
}

func parseFloats(args string, want int) ([]float64, error) {
	parts := splitRuleArgs(args)
	if args == "" || len(parts) != want {
		return nil, fmt.Errorf("%w: want %d numbers, got %q", ErrInvalidRuleArgs, want, args)
	}

	out := make([]float64, want)
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRuleArgs, err)
		}
		out[i] = f
	}
	return out, nil
}
