package starlark

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	starlarkLib "go.starlark.net/starlark"
)

// toStarlark converts a cty value into a frozen Starlark value.
func toStarlark(v cty.Value) (starlarkLib.Value, error) {
	if v.IsNull() || !v.IsKnown() {
		return starlarkLib.None, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return starlarkLib.String(v.AsString()), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			bi, _ := bf.Int(nil)
			return starlarkLib.MakeBigInt(bi), nil
		}
		f, _ := bf.Float64()
		return starlarkLib.Float(f), nil
	case ty == cty.Bool:
		return starlarkLib.Bool(v.True()), nil
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		elems := make([]starlarkLib.Value, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			sv, err := toStarlark(ev)
			if err != nil {
				return nil, err
			}
			elems = append(elems, sv)
		}
		list := starlarkLib.NewList(elems)
		list.Freeze()
		return list, nil
	case ty.IsMapType() || ty.IsObjectType():
		dict := starlarkLib.NewDict(v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			sv, err := toStarlark(ev)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlarkLib.String(k.AsString()), sv); err != nil {
				return nil, err
			}
		}
		dict.Freeze()
		return dict, nil
	default:
		return nil, fmt.Errorf("cannot convert %s to a Starlark value", ty.FriendlyName())
	}
}

// fromStarlark converts a Starlark value to cty. Lists and tuples become cty
// tuples, dicts with string keys become objects.
func fromStarlark(v starlarkLib.Value) (cty.Value, error) {
	switch sv := v.(type) {
	case nil, starlarkLib.NoneType:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case starlarkLib.Bool:
		return cty.BoolVal(bool(sv)), nil
	case starlarkLib.Int:
		return cty.NumberVal(new(big.Float).SetInt(sv.BigInt())), nil
	case starlarkLib.Float:
		if math.IsNaN(float64(sv)) {
			return cty.NilVal, errors.New("cannot export NaN")
		}
		return cty.NumberFloatVal(float64(sv)), nil
	case starlarkLib.String:
		return cty.StringVal(string(sv)), nil
	case *starlarkLib.List:
		return sequenceToCty(sv)
	case starlarkLib.Tuple:
		return sequenceToCty(sv)
	case *starlarkLib.Dict:
		if sv.Len() == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, sv.Len())
		for _, item := range sv.Items() {
			key, ok := item[0].(starlarkLib.String)
			if !ok {
				return cty.NilVal, fmt.Errorf("dict key %s is not a string", item[0])
			}
			ev, err := fromStarlark(item[1])
			if err != nil {
				return cty.NilVal, fmt.Errorf("key %q: %w", string(key), err)
			}
			attrs[string(key)] = ev
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("cannot export Starlark value of type %s", v.Type())
	}
}

func sequenceToCty(seq starlarkLib.Indexable) (cty.Value, error) {
	n := seq.Len()
	if n == 0 {
		return cty.EmptyTupleVal, nil
	}
	elems := make([]cty.Value, n)
	for i := 0; i < n; i++ {
		ev, err := fromStarlark(seq.Index(i))
		if err != nil {
			return cty.NilVal, fmt.Errorf("index %d: %w", i, err)
		}
		elems[i] = ev
	}
	return cty.TupleVal(elems), nil
}
