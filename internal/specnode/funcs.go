package specnode

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functionTable builds the closed set of functions available to `!_`
// expressions. Distribution samplers consume the provided random source;
// everything else is pure arithmetic from the cty stdlib.
func functionTable(rng *rand.Rand) map[string]function.Function {
	return map[string]function.Function{
		"normal":      sampler2("mean", "std", func(a, b float64) float64 { return a + b*rng.NormFloat64() }),
		"uniform":     sampler2("low", "high", func(a, b float64) float64 { return a + rng.Float64()*(b-a) }),
		"lognormal":   sampler2("mu", "sigma", func(a, b float64) float64 { return math.Exp(a + b*rng.NormFloat64()) }),
		"exponential": sampler1("scale", func(a float64) float64 { return a * rng.ExpFloat64() }),
		"poisson":     poissonFunc(rng),
		"choice":      choiceFunc(rng),
		"discrete":    discreteFunc(rng),
		"round":       roundFunc,
		"abs":         stdlib.AbsoluteFunc,
		"ceil":        stdlib.CeilFunc,
		"floor":       stdlib.FloorFunc,
		"min":         stdlib.MinFunc,
		"max":         stdlib.MaxFunc,
		"pow":         stdlib.PowFunc,
	}
}

func sampler1(name string, draw func(float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: name, Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			a, _ := args[0].AsBigFloat().Float64()
			return cty.NumberFloatVal(draw(a)), nil
		},
	})
}

func sampler2(nameA, nameB string, draw func(a, b float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: nameA, Type: cty.Number},
			{Name: nameB, Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			a, _ := args[0].AsBigFloat().Float64()
			b, _ := args[1].AsBigFloat().Float64()
			return cty.NumberFloatVal(draw(a, b)), nil
		},
	})
}

func poissonFunc(rng *rand.Rand) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "lambda", Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			lam, _ := args[0].AsBigFloat().Float64()
			if lam < 0 {
				return cty.NilVal, fmt.Errorf("poisson: lambda must be non-negative, got %g", lam)
			}
			// Knuth's algorithm; adequate for the scenario-scale lambdas
			// templates actually use.
			limit := math.Exp(-lam)
			k := int64(0)
			p := 1.0
			for {
				p *= rng.Float64()
				if p <= limit {
					break
				}
				k++
			}
			return cty.NumberIntVal(k), nil
		},
	})
}

func choiceFunc(rng *rand.Rand) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "options", Type: cty.DynamicPseudoType, AllowDynamicType: true},
		},
		Type: function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			options, err := elementsOf(args[0])
			if err != nil {
				return cty.NilVal, fmt.Errorf("choice: %w", err)
			}
			if len(options) == 0 {
				return cty.NilVal, fmt.Errorf("choice: options must not be empty")
			}
			return options[rng.Intn(len(options))], nil
		},
	})
}

// discreteFunc picks one of options with the given relative weights.
// Weights are normalized internally, so they need not sum to one.
func discreteFunc(rng *rand.Rand) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "options", Type: cty.DynamicPseudoType, AllowDynamicType: true},
			{Name: "weights", Type: cty.DynamicPseudoType, AllowDynamicType: true},
		},
		Type: function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			options, err := elementsOf(args[0])
			if err != nil {
				return cty.NilVal, fmt.Errorf("discrete: %w", err)
			}
			weightVals, err := elementsOf(args[1])
			if err != nil {
				return cty.NilVal, fmt.Errorf("discrete: %w", err)
			}
			if len(options) == 0 || len(options) != len(weightVals) {
				return cty.NilVal, fmt.Errorf("discrete: need equally sized, non-empty options and weights, got %d and %d", len(options), len(weightVals))
			}

			total := 0.0
			weights := make([]float64, len(weightVals))
			for i, wv := range weightVals {
				if wv.Type() != cty.Number {
					return cty.NilVal, fmt.Errorf("discrete: weight %d is not a number", i)
				}
				w, _ := wv.AsBigFloat().Float64()
				if w < 0 {
					return cty.NilVal, fmt.Errorf("discrete: weight %d is negative", i)
				}
				weights[i] = w
				total += w
			}
			if total == 0 {
				return cty.NilVal, fmt.Errorf("discrete: weights sum to zero")
			}

			r := rng.Float64() * total
			for i, w := range weights {
				r -= w
				if r < 0 {
					return options[i], nil
				}
			}
			return options[len(options)-1], nil
		},
	})
}

var roundFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "num", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		f, _ := args[0].AsBigFloat().Float64()
		return cty.NumberIntVal(int64(math.Round(f))), nil
	},
})

func elementsOf(v cty.Value) ([]cty.Value, error) {
	t := v.Type()
	if !t.IsTupleType() && !t.IsListType() && !t.IsSetType() {
		return nil, fmt.Errorf("expected a list, got %s", t.FriendlyName())
	}
	out := make([]cty.Value, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		out = append(out, ev)
	}
	return out, nil
}
