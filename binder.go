package cliparam

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
)

// FailurePolicy controls what Bind does after a parameter fails.
type FailurePolicy int

const (
	// AggregateAll processes every parameter and reports all failures at
	// once. This is the default.
	AggregateAll FailurePolicy = iota
	// FailFast stops after the first failing parameter.
	FailFast
)

func (fp FailurePolicy) String() string {
	switch fp {
	case AggregateAll:
		return "aggregate-all"
	case FailFast:
		return "fail-fast"
	default:
		return "unknown"
	}
}

// Values maps parameter names to their bound values.
type Values map[string]any

// Has reports whether name was bound.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Get returns the bound value of name as a T.
func Get[T any](values Values, name string) (T, bool) {
	var zero T
	raw, ok := values[name]
	if !ok {
		return zero, false
	}
	typed, ok := raw.(T)
	return typed, ok
}

// Binder converts and validates the raw tokens of one command invocation.
//
// A Binder holds no per-call state. Bind may be called concurrently as long
// as the configured collaborators tolerate concurrent reads, which all the
// implementations in this package do.
type Binder struct {
	converter ValueConverter
	provider  ValidatorProvider
	resolver  CapabilityResolver
	logger    *slog.Logger
	policy    FailurePolicy
}

// BinderOpts configures a Binder. Every field is optional.
type BinderOpts struct {
	Converter ValueConverter     // Defaults to NewDefaultConverter(nil)
	Provider  ValidatorProvider  // Defaults to the package DefaultValidatorProvider
	Resolver  CapabilityResolver // Nil means no capability can be resolved
	Logger    *slog.Logger       // Defaults to NopLogger()
	Policy    FailurePolicy      // Defaults to AggregateAll
}

func NewBinder(opts BinderOpts) *Binder {
	b := &Binder{
		converter: opts.Converter,
		provider:  opts.Provider,
		resolver:  opts.Resolver,
		logger:    opts.Logger,
		policy:    opts.Policy,
	}

	if b.converter == nil {
		b.converter = NewDefaultConverter(nil)
	}
	if b.provider == nil {
		b.provider = NewDefaultValidatorProvider(ValidatorProviderOpts{})
	}
	if b.logger == nil {
		b.logger = NopLogger()
	}

	return b
}

// NopLogger returns a logger that discards all output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Bind converts and validates every declared parameter.
//
// On success the returned Values hold exactly one entry per parameter. When
// parameters fail to convert or validate, Bind returns a *BindError listing
// every failure (or only the first one under FailFast). Misconfiguration,
// such as a rule asking for an unregistered capability or an invalid
// descriptor set, is returned as a plain error and aborts immediately.
func (b *Binder) Bind(params []ParameterDescriptor, options, arguments []RawToken) (Values, error) {
	if err := validateDescriptors(params); err != nil {
		return nil, err
	}

	selection := selectTokens(params, options, arguments)
	values := make(Values, len(params))
	var failures []ParameterFailure

	for i := range params {
		p := &params[i]

		value, failure, err := b.bindParameter(p, selection[i])
		if err != nil {
			b.logger.Error("aborting bind",
				slog.String("parameter", p.Name),
				slog.String("error", err.Error()),
			)
			return nil, err
		}

		if failure != nil {
			b.logger.Debug("parameter rejected",
				slog.String("parameter", p.Name),
				slog.String("stage", failure.Stage.String()),
				slog.String("reason", failure.Reason),
			)
			failures = append(failures, *failure)
			if b.policy == FailFast {
				break
			}
			continue
		}

		b.logger.Debug("parameter bound",
			slog.String("parameter", p.Name),
			slog.Int("tokens", len(selection[i])),
		)
		values[p.Name] = value
	}

	if len(failures) > 0 {
		return nil, newBindError(failures)
	}
	return values, nil
}

// bindParameter runs conversion and validation for one parameter. A non-nil
// error is fatal for the whole Bind call.
func (b *Binder) bindParameter(p *ParameterDescriptor, tokens []RawToken) (any, *ParameterFailure, error) {
	if len(tokens) == 0 {
		if p.HasDefault {
			return p.Default, nil, nil
		}
		if value, ok := implicitDefault(p); ok {
			return value, nil, nil
		}
	}

	value, err := b.converter.Convert(tokenValues(tokens), p.Type)
	if err != nil {
		return nil, &ParameterFailure{
			Parameter: p.Name,
			Stage:     StageConversion,
			Reason:    err.Error(),
			Err:       err,
		}, nil
	}

	rules, err := b.provider.Validators(p)
	if err != nil {
		return nil, nil, err
	}

	vctx := newValidationContext(p, value, b.resolver)
	for _, rule := range rules {
		err := rule.Validate(vctx)

		// A failed lookup is fatal even when the rule swallowed it
		if capErr := vctx.capabilityError(); capErr != nil {
			return nil, nil, capErr
		}
		if err == nil {
			continue
		}
		if errors.Is(err, ErrCapabilityNotFound) {
			return nil, nil, err
		}
		return nil, &ParameterFailure{
			Parameter: p.Name,
			Stage:     StageValidation,
			Reason:    err.Error(),
			Err:       err,
		}, nil
	}

	return value, nil, nil
}

// implicitDefault covers parameters that are optional by type: a bool
// option is a flag that defaults to false, and a pointer is nil when absent.
func implicitDefault(p *ParameterDescriptor) (any, bool) {
	switch {
	case p.Kind == KindOption && p.Type == BoolType:
		return false, true
	case p.Type.Kind() == reflect.Ptr:
		return reflect.Zero(p.Type).Interface(), true
	default:
		return nil, false
	}
}

///////////////////////////////////////////////////////////////////////////////
// Global Singleton and Package Functions
///////////////////////////////////////////////////////////////////////////////

var _gBinder = sync.OnceValue(func() *Binder {
	return NewBinder(BinderOpts{})
})

// Bind binds with a package level Binder that has no capability resolver.
func Bind(params []ParameterDescriptor, options, arguments []RawToken) (Values, error) {
	return _gBinder().Bind(params, options, arguments)
}

// MustBind is like Bind but panics on error. Intended for tests and
// examples with fixed input.
func MustBind(params []ParameterDescriptor, options, arguments []RawToken) Values {
	values, err := Bind(params, options, arguments)
	if err != nil {
		panic(fmt.Sprintf("cliparam: %v", err))
	}
	return values
}
