package cliparam

import (
	"fmt"
	"sync"
)

///////////////////////////////////////////////////////////////////////////////
// ValidatorRule Interface
///////////////////////////////////////////////////////////////////////////////

// ValidatorRule validates one converted parameter value.
//
// Validate returns nil on success. Any other error is a validation failure
// whose message is reported to the user, except errors matching
// ErrCapabilityNotFound, which abort the whole Bind call.
//
// Pure rules only look at vctx.Value. Collaborator-dependent rules also call
// vctx.Resolve (or Resolve[T]) to obtain services.
type ValidatorRule interface {
	Validate(vctx *ValidationContext) error
}

// RuleFunc adapts a function to ValidatorRule.
type RuleFunc func(vctx *ValidationContext) error

func (fn RuleFunc) Validate(vctx *ValidationContext) error {
	return fn(vctx)
}

///////////////////////////////////////////////////////////////////////////////
// ValidatorProvider Interface
///////////////////////////////////////////////////////////////////////////////

// ValidatorProvider yields the rules that apply to a parameter, in
// declaration order. Specs it does not recognise are skipped silently.
type ValidatorProvider interface {
	Validators(p *ParameterDescriptor) ([]ValidatorRule, error)
}

///////////////////////////////////////////////////////////////////////////////
// RuleFactoryRegistry
///////////////////////////////////////////////////////////////////////////////

// RuleFactory builds a rule from the args of a rule tag entry. args is
// empty when the tag carried none.
type RuleFactory func(args string) (ValidatorRule, error)

// RuleFactoryRegistry maps rule tag names to factories. It is safe for
// concurrent use.
type RuleFactoryRegistry struct {
	mu sync.RWMutex
	m  map[string]RuleFactory
}

type RuleFactoryRegistryOpts struct {
	Factories       map[string]RuleFactory
	ExcludeDefaults bool
}

var (
	_defaultRuleFactories map[string]RuleFactory = builtinRuleFactories()
)

func NewRuleFactoryRegistry(opts RuleFactoryRegistryOpts) (*RuleFactoryRegistry, error) {
	reg := &RuleFactoryRegistry{
		m: make(map[string]RuleFactory),
	}

	if !opts.ExcludeDefaults {
		for name, factory := range _defaultRuleFactories {
			if err := reg.Register(name, factory); err != nil {
				return nil, err
			}
		}
	}

	for name, factory := range opts.Factories {
		if err := reg.Register(name, factory); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Register adds a factory under name.
func (reg *RuleFactoryRegistry) Register(name string, factory RuleFactory) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrRuleFactoryAlreadyDefined, name)
	}
	reg.m[name] = factory
	return nil
}

// Lookup returns the factory registered under name.
func (reg *RuleFactoryRegistry) Lookup(name string) (RuleFactory, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	factory, ok := reg.m[name]
	return factory, ok
}

///////////////////////////////////////////////////////////////////////////////
// DefaultValidatorProvider
///////////////////////////////////////////////////////////////////////////////

// DefaultValidatorProvider recognises two kinds of spec: values that
// implement ValidatorRule, and RuleTag strings whose rule names are known
// to its factory registry. Everything else is ignored.
type DefaultValidatorProvider struct {
	factories *RuleFactoryRegistry
}

type ValidatorProviderOpts struct {
	// Factories used for RuleTag specs. Nil means the package registry.
	Factories *RuleFactoryRegistry
}

func NewDefaultValidatorProvider(opts ValidatorProviderOpts) *DefaultValidatorProvider {
	factories := opts.Factories
	if factories == nil {
		factories = _gRuleFactories
	}
	return &DefaultValidatorProvider{factories: factories}
}

// Validators implements ValidatorProvider.
func (vp *DefaultValidatorProvider) Validators(p *ParameterDescriptor) ([]ValidatorRule, error) {
	rules := make([]ValidatorRule, 0, len(p.Specs))

	for _, spec := range p.Specs {
		switch s := spec.(type) {
		case ValidatorRule:
			rules = append(rules, s)
		case RuleTag:
			tagRules, err := vp.rulesFromTag(s)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
			}
			rules = append(rules, tagRules...)
		}
	}

	return rules, nil
}

func (vp *DefaultValidatorProvider) rulesFromTag(tag RuleTag) ([]ValidatorRule, error) {
	entries, err := decodeRuleTag(string(tag))
	if err != nil {
		return nil, err
	}

	rules := make([]ValidatorRule, 0, len(entries))
	for _, entry := range entries {
		factory, ok := vp.factories.Lookup(entry.Name)
		if !ok {
			continue
		}

		rule, err := factory(entry.Args)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRuleTag, entry.Name, err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

///////////////////////////////////////////////////////////////////////////////
// Global Singleton and Package Functions
///////////////////////////////////////////////////////////////////////////////

var _gRuleFactories *RuleFactoryRegistry = mustNewRuleFactoryRegistry()

func mustNewRuleFactoryRegistry() *RuleFactoryRegistry {
	reg, err := NewRuleFactoryRegistry(RuleFactoryRegistryOpts{})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize global RuleFactoryRegistry: %v", err))
	}
	return reg
}

// RegisterRuleFactory registers a rule tag factory with the package registry
// used by providers built without their own registry.
func RegisterRuleFactory(name string, factory RuleFactory) error {
	return _gRuleFactories.Register(name, factory)
}
