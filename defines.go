package cliparam

import (
	"encoding"
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"
)

// constants for the rule tag grammar
const (
	RuleTagScopeDelimiter   = byte('\'')
	RuleTagKeyValueDelim    = ":"
	RuleTagArgDelimiter     = ","
	RuleTagChoiceDelimiter  = "|"
	sRuleTagScopeDelimiter  = string(RuleTagScopeDelimiter)
	ruleTagWhitespaceCutset = " \t"
)

// Rule tag names for the built-in rule factories.
const (
	RangeRuleTag    = "range"
	MinRuleTag      = "min"
	MaxRuleTag      = "max"
	LengthRuleTag   = "len"
	PatternRuleTag  = "pattern"
	OneOfRuleTag    = "oneof"
	NotEmptyRuleTag = "nonempty"
	EvenRuleTag     = "even"
	UUIDRuleTag     = "uuid"
	ULIDRuleTag     = "ulid"
	PathRuleTag     = "path"
	JSONHasRuleTag  = "jsonhas"
)

// reflect.TypeOf constants for type checks
var (
	StringType          = reflect.TypeOf("")
	BoolType            = reflect.TypeOf(false)
	ByteSliceType       = reflect.TypeOf([]byte{})
	JSONRawMessageType  = reflect.TypeOf(json.RawMessage{})
	TimeType            = reflect.TypeOf(time.Time{})
	DurationType        = reflect.TypeOf(time.Duration(0))
	UUIDType            = reflect.TypeOf(uuid.UUID{})
	ULIDType            = reflect.TypeOf(ulid.ULID{})
	GJSONResultType     = reflect.TypeOf(gjson.Result{})
	TextUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// timeLayouts are tried in order when converting to time.Time.
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}
