package cliparam_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing/fstest"

	cliparam "github.com/SimonDaKappa/go-cliparam"
)

func ExampleBind() {
	params := []cliparam.ParameterDescriptor{
		cliparam.NewOption[int]("width", cliparam.WithAliases("w"), cliparam.WithSpecs(cliparam.Range(1, 128))),
		cliparam.NewOption[bool]("verbose"),
		cliparam.NewArgument[[]int]("values", 0, cliparam.WithSpecs(cliparam.RuleTag("even"))),
	}

	values, err := cliparam.Bind(params,
		[]cliparam.RawToken{cliparam.Option("w", "64", 0)},
		[]cliparam.RawToken{cliparam.Argument("10", 1), cliparam.Argument("20", 2)},
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	width, _ := cliparam.Get[int](values, "width")
	verbose, _ := cliparam.Get[bool](values, "verbose")
	fmt.Println(width, verbose, values["values"])
	// Output: 64 false [10 20]
}

func ExampleBindError() {
	params := []cliparam.ParameterDescriptor{
		cliparam.NewOption[int]("width", cliparam.WithSpecs(cliparam.RuleTag("range:'1,128'"))),
		cliparam.NewOption[int]("height"),
	}

	_, err := cliparam.Bind(params, []cliparam.RawToken{
		cliparam.Option("width", "500", 0),
		cliparam.Option("height", "tall", 2),
	}, nil)

	be, ok := cliparam.AsBindError(err)
	if !ok {
		return
	}
	fmt.Println(be.Result())
	for _, f := range be.Failures() {
		fmt.Println(f)
	}
	// Output:
	// ConversionFailed
	// width (validation): value 500 must be between 1 and 128
	// height (conversion): cannot convert "tall" to int: error converting value to int: strconv.ParseInt: parsing "tall": invalid syntax
}

type Calculator struct{}

func (Calculator) IsEven(n int) bool { return n%2 == 0 }

func ExampleRequires() {
	services := cliparam.NewServiceRegistry()
	cliparam.Register(services, &Calculator{})

	isEven := cliparam.Requires(func(calc *Calculator, vctx *cliparam.ValidationContext) error {
		if n, _ := vctx.Value.(int); !calc.IsEven(n) {
			return errors.New("value is an uneven number")
		}
		return nil
	})

	binder := cliparam.NewBinder(cliparam.BinderOpts{Resolver: services})
	params := []cliparam.ParameterDescriptor{
		cliparam.NewArgument[int]("n", 0, cliparam.WithSpecs(isEven)),
	}

	for _, arg := range []string{"2", "3"} {
		_, err := binder.Bind(params, nil, []cliparam.RawToken{cliparam.Argument(arg, 0)})
		fmt.Println(arg, err)
	}
	// Output:
	// 2 <nil>
	// 3 parameter validation failed: n (validation): value is an uneven number
}

func ExamplePathExistsIn() {
	services := cliparam.NewServiceRegistry()
	cliparam.Register[fs.FS](services, fstest.MapFS{
		"input.csv": &fstest.MapFile{Data: []byte("a,b")},
	})

	binder := cliparam.NewBinder(cliparam.BinderOpts{Resolver: services})
	params := []cliparam.ParameterDescriptor{
		cliparam.NewArgument[string]("input", 0, cliparam.WithSpecs(cliparam.PathExistsIn())),
	}

	_, err := binder.Bind(params, nil, []cliparam.RawToken{cliparam.Argument("missing.csv", 0)})
	fmt.Println(err)
	// Output: parameter validation failed: input (validation): the path 'missing.csv' is not found
}
