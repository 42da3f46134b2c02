package cliparam

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func validate(rule ValidatorRule, value any) error {
	p := NewOption[any]("value")
	return rule.Validate(newValidationContext(&p, value, nil))
}

func TestPureRules(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	tests := []struct {
		name    string
		rule    ValidatorRule
		value   any
		wantErr bool
	}{
		// Range
		{"range_lower_bound", Range(0, 100), 0, false},
		{"range_upper_bound", Range(0, 100), 100, false},
		{"range_above", Range(0, 100), 123, true},
		{"range_below", Range(0, 100), -1, true},
		{"range_float", Range(0, 1), 0.5, false},
		{"range_uint", Range(0, 10), uint8(11), true},
		{"range_pointer", Range(0, 10), ptr(5), false},
		{"range_slice", Range(0, 10), []int{1, 2, 11}, true},
		{"range_not_numeric", Range(0, 10), "5", true},
		{"range_nan", Range(0, 100), math.NaN(), true},
		{"range_nan_float32", Range(0, 100), float32(math.NaN()), true},
		{"range_inf", Range(0, 100), math.Inf(1), true},
		{"range_int64_above_2_53", Range(0, 9007199254740992), int64(9007199254740993), true},
		{"range_int64_at_2_53", Range(0, 9007199254740992), int64(9007199254740992), false},
		{"range_uint64_above_2_53", Range(0, 9007199254740992), uint64(9007199254740993), true},
		{"range_int64_max", Range(0, math.Inf(1)), int64(math.MaxInt64), false},
		{"range_uint64_max", Range(0, math.MaxUint64), uint64(math.MaxUint64), false},
		{"range_fractional_bounds", Range(0.5, 2.5), 1, false},
		{"range_fractional_bounds_low", Range(0.5, 2.5), 0, true},
		{"range_fractional_bounds_high", Range(0.5, 2.5), 3, true},
		{"range_negative_int", Range(-10, -1), int8(-5), false},
		{"range_uint_negative_bounds", Range(-10, -1), uint(0), true},
		{"range_nil_pointer", Range(0, 10), (*int)(nil), true},

		// Min / Max
		{"min_ok", Min(3), 3, false},
		{"min_fail", Min(3), 2, true},
		{"max_ok", Max(3), int64(3), false},
		{"max_fail", Max(3), float32(3.5), true},
		{"min_nan", Min(0), math.NaN(), true},
		{"max_nan", Max(100), math.NaN(), true},

		// Length
		{"length_string", Length(1, 3), "abc", false},
		{"length_runes", Length(1, 3), "äöü", false},
		{"length_too_long", Length(1, 3), "abcd", true},
		{"length_slice", Length(2, -1), []string{"a", "b", "c"}, false},
		{"length_slice_short", Length(2, -1), []string{"a"}, true},
		{"length_not_measurable", Length(0, 1), 5, true},
		{"length_nil", Length(0, 1), nil, true},

		// Pattern
		{"pattern_match", Pattern(regexp.MustCompile(`^v\d+$`)), "v12", false},
		{"pattern_mismatch", Pattern(regexp.MustCompile(`^v\d+$`)), "12", true},
		{"pattern_slice", Pattern(regexp.MustCompile(`^v\d+$`)), []string{"v1", "x"}, true},
		{"pattern_not_string", Pattern(regexp.MustCompile(`.*`)), 1, true},

		// OneOf
		{"oneof_match", OneOf("json", "yaml"), "yaml", false},
		{"oneof_mismatch", OneOf("json", "yaml"), "toml", true},
		{"oneof_int", OneOf("1", "2"), 2, false},

		// NotEmpty
		{"notempty_string", NotEmpty(), "x", false},
		{"notempty_empty_string", NotEmpty(), "", true},
		{"notempty_empty_slice", NotEmpty(), []int{}, true},
		{"notempty_slice", NotEmpty(), []int{0}, false},
		{"notempty_nil", NotEmpty(), nil, true},

		// Even
		{"even_int", Even(), 2, false},
		{"even_odd", Even(), 3, true},
		{"even_uint", Even(), uint(4), false},
		{"even_slice", Even(), []int{10, 20, 30, 40}, false},
		{"even_slice_odd", Even(), []int{10, 15, 20, 25}, true},
		{"even_not_integer", Even(), 2.0, true},

		// NonNilUUID
		{"uuid_valid", NonNilUUID(), id, false},
		{"uuid_nil", NonNilUUID(), uuid.Nil, true},
		{"uuid_wrong_type", NonNilUUID(), id.String(), true},

		// NonZeroULID
		{"ulid_valid", NonZeroULID(), ulid.MustParse("01ARZ3NDEKTSV4RRFFQ69G5FAV"), false},
		{"ulid_zero", NonZeroULID(), ulid.ULID{}, true},
		{"ulid_wrong_type", NonZeroULID(), "01ARZ3NDEKTSV4RRFFQ69G5FAV", true},

		// JSONHas
		{"jsonhas_result", JSONHas("user.id"), gjson.Parse(`{"user":{"id":1}}`), false},
		{"jsonhas_string", JSONHas("name"), `{"name":"pave"}`, false},
		{"jsonhas_missing", JSONHas("user.email"), gjson.Parse(`{"user":{"id":1}}`), true},
		{"jsonhas_wrong_type", JSONHas("a"), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.rule, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrCapabilityNotFound)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRangeMessage(t *testing.T) {
	err := validate(Range(0, 100), 123)
	require.Error(t, err)
	assert.Equal(t, "value 123 must be between 0 and 100", err.Error())
}

func TestRangeNaNMessage(t *testing.T) {
	err := validate(Range(0, 100), math.NaN())
	require.Error(t, err)
	assert.Equal(t, "value NaN is not a number", err.Error())
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("a: 1"), 0o600))

	assert.NoError(t, validate(PathExists(), file))
	assert.NoError(t, validate(PathExists(), dir))

	missing := filepath.Join(dir, "missing.yaml")
	err := validate(PathExists(), missing)
	require.Error(t, err)
	assert.Equal(t, "the path '"+missing+"' is not found", err.Error())

	assert.Error(t, validate(PathExists(), []string{file, missing}))
}

func TestPathExistsIn(t *testing.T) {
	fsys := fstest.MapFS{
		"docs/readme.md": &fstest.MapFile{Data: []byte("# readme")},
	}

	sr := NewServiceRegistry()
	Register[fs.FS](sr, fsys)
	p := NewArgument[string]("path", 0)

	check := func(resolver CapabilityResolver, value any) error {
		return PathExistsIn().Validate(newValidationContext(&p, value, resolver))
	}

	t.Run("Exists", func(t *testing.T) {
		assert.NoError(t, check(sr, "docs/readme.md"))
		assert.NoError(t, check(sr, "docs"))
	})

	t.Run("Missing", func(t *testing.T) {
		err := check(sr, "docs/other.md")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCapabilityNotFound)
		assert.Contains(t, err.Error(), "docs/other.md")
	})

	t.Run("InvalidPath", func(t *testing.T) {
		assert.Error(t, check(sr, "../etc/passwd"))
		assert.Error(t, check(sr, "/docs/readme.md"))
	})

	t.Run("NoFileSystemRegistered", func(t *testing.T) {
		err := check(NewServiceRegistry(), "docs/readme.md")
		assert.ErrorIs(t, err, ErrCapabilityNotFound)
	})
}

func TestEach(t *testing.T) {
	t.Run("ReportsFirstFailingElement", func(t *testing.T) {
		err := validate(Each(Range(0, 10)), []int{1, 20, 30})
		require.Error(t, err)
		assert.Equal(t, "element 1: value 20 must be between 0 and 10", err.Error())
	})

	t.Run("ScalarPassesThrough", func(t *testing.T) {
		assert.NoError(t, validate(Each(Even()), 4))
		assert.Error(t, validate(Each(Even()), 5))
	})

	t.Run("ElementValues", func(t *testing.T) {
		var seen []any
		rule := Each(RuleFunc(func(vctx *ValidationContext) error {
			seen = append(seen, vctx.Value)
			return nil
		}))

		require.NoError(t, validate(rule, []string{"a", "b"}))
		assert.Equal(t, []any{"a", "b"}, seen)
	})

	t.Run("CapabilityErrorIsNotWrapped", func(t *testing.T) {
		err := validate(Each(isEvenUsingCalculator()), []int{2})

		var ce *CapabilityError
		require.ErrorAs(t, err, &ce)
		assert.NotContains(t, err.Error(), "element")
	})
}

func TestRequires(t *testing.T) {
	p := NewArgument[int]("arg0", 0)
	sr := NewServiceRegistry()
	Register(sr, &Calculator{})

	rule := isEvenUsingCalculator()

	assert.NoError(t, rule.Validate(newValidationContext(&p, 2, sr)))

	err := rule.Validate(newValidationContext(&p, 3, sr))
	require.Error(t, err)
	assert.Equal(t, "value is an uneven number", err.Error())

	err = rule.Validate(newValidationContext(&p, "2", sr))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCapabilityNotFound))
}

func TestBuiltinRuleFactories(t *testing.T) {
	factories := builtinRuleFactories()

	tests := []struct {
		name    string
		rule    string
		args    string
		wantErr bool
	}{
		{"range", RangeRuleTag, "0,100", false},
		{"range_one_bound", RangeRuleTag, "0", true},
		{"range_not_numbers", RangeRuleTag, "a,b", true},
		{"min", MinRuleTag, "1.5", false},
		{"max_empty", MaxRuleTag, "", true},
		{"len_exact", LengthRuleTag, "3", false},
		{"len_bounds", LengthRuleTag, "1,8", false},
		{"len_open", LengthRuleTag, "1,", false},
		{"len_bad", LengthRuleTag, "x", true},
		{"len_too_many", LengthRuleTag, "1,2,3", true},
		{"pattern", PatternRuleTag, `^\d+$`, false},
		{"pattern_bad", PatternRuleTag, `(`, true},
		{"pattern_empty", PatternRuleTag, "", true},
		{"oneof", OneOfRuleTag, "a|b", false},
		{"oneof_empty", OneOfRuleTag, "", true},
		{"nonempty", NotEmptyRuleTag, "", false},
		{"nonempty_args", NotEmptyRuleTag, "x", true},
		{"even", EvenRuleTag, "", false},
		{"uuid", UUIDRuleTag, "", false},
		{"ulid", ULIDRuleTag, "", false},
		{"path", PathRuleTag, "", false},
		{"jsonhas", JSONHasRuleTag, "user.id", false},
		{"jsonhas_empty", JSONHasRuleTag, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory, ok := factories[tt.rule]
			require.True(t, ok)

			rule, err := factory(tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRuleArgs)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, rule)
		})
	}
}

func TestBuiltinRuleFactoriesBehavior(t *testing.T) {
	factories := builtinRuleFactories()

	lengthRule, err := factories[LengthRuleTag]("1,")
	require.NoError(t, err)
	assert.NoError(t, validate(lengthRule, "a very long value indeed"))
	assert.Error(t, validate(lengthRule, ""))

	oneOfRule, err := factories[OneOfRuleTag]("json|yaml")
	require.NoError(t, err)
	assert.NoError(t, validate(oneOfRule, "json"))
	assert.Error(t, validate(oneOfRule, "json|yaml"))
}
