// Package cliparam binds raw command-line tokens to typed parameter values
// and validates them before a command handler runs.
//
// A command is described by an ordered list of ParameterDescriptor values,
// each one either a named option or a positional argument, with a target
// type and an ordered list of validation specs. The tokenizer (not part of
// this package) produces RawToken lists for options and arguments. Bind
// then, for every declared parameter:
//
//  1. selects the tokens that belong to it (options by name or alias,
//     arguments by ordinal),
//  2. substitutes the default when no token was supplied,
//  3. converts the tokens with a ValueConverter,
//  4. runs the rules returned by a ValidatorProvider against a
//     ValidationContext.
//
// Failures are aggregated across parameters: a single Bind reports every
// parameter that failed to convert or validate in one *BindError. Inside
// one parameter the first failing rule wins.
//
// Validation specs come in two flavors:
//   - Any value implementing ValidatorRule, such as Range(0, 100) or a
//     RuleFunc.
//   - A RuleTag string in the rule tag grammar, e.g.
//     RuleTag("range:'1,128' even"), resolved through a RuleFactoryRegistry.
//
// Specs of any other type are unrelated metadata and are ignored.
//
// Rules that need collaborators (a filesystem, a lookup service) resolve
// them through ValidationContext.Resolve or Resolve[T]. The resolver is the
// CapabilityResolver passed in BinderOpts; ServiceRegistry is a ready-made
// implementation. A rule asking for an unregistered capability does not
// produce a ParameterFailure: the misconfiguration aborts the Bind call with
// a *CapabilityError.
//
// Example:
//
//	params := []cliparam.ParameterDescriptor{
//		cliparam.NewOption[int]("width", cliparam.WithSpecs(cliparam.Range(1, 128))),
//		cliparam.NewArgument[string]("path", 0, cliparam.WithSpecs(cliparam.PathExists())),
//	}
//
//	values, err := cliparam.Bind(params,
//		[]cliparam.RawToken{cliparam.Option("width", "64", 0)},
//		[]cliparam.RawToken{cliparam.Argument("./README.md", 1)},
//	)
//	if be, ok := cliparam.AsBindError(err); ok {
//		for _, f := range be.Failures() {
//			fmt.Println(f)
//		}
//	}
package cliparam
