package lua

import (
	"errors"
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
	"github.com/zclconf/go-cty/cty"
)

// toLua converts a cty value into a Lua value owned by L.
func toLua(L *lua.LState, v cty.Value) (lua.LValue, error) {
	if v.IsNull() || !v.IsKnown() {
		return lua.LNil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return lua.LString(v.AsString()), nil
	case ty == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return lua.LNumber(f), nil
	case ty == cty.Bool:
		return lua.LBool(v.True()), nil
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		tbl := L.NewTable()
		i := 1
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			lv, err := toLua(L, ev)
			if err != nil {
				return nil, err
			}
			L.RawSetInt(tbl, i, lv)
			i++
		}
		return tbl, nil
	case ty.IsMapType() || ty.IsObjectType():
		tbl := L.NewTable()
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			lv, err := toLua(L, ev)
			if err != nil {
				return nil, err
			}
			L.SetField(tbl, k.AsString(), lv)
		}
		return tbl, nil
	default:
		return nil, fmt.Errorf("cannot convert %s to a Lua value", ty.FriendlyName())
	}
}

// fromLua converts a Lua value to cty. Tables with only the keys 1..n become
// tuples; any other table becomes an object keyed by its string keys, with
// numeric keys formatted as strings. Functions and userdata have no cty
// equivalent and are rejected.
func fromLua(v lua.LValue) (cty.Value, error) {
	switch lv := v.(type) {
	case *lua.LNilType:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case lua.LBool:
		return cty.BoolVal(bool(lv)), nil
	case lua.LNumber:
		if math.IsNaN(float64(lv)) {
			return cty.NilVal, errors.New("cannot export NaN")
		}
		return cty.NumberFloatVal(float64(lv)), nil
	case lua.LString:
		return cty.StringVal(string(lv)), nil
	case *lua.LTable:
		return tableToCty(lv)
	default:
		return cty.NilVal, fmt.Errorf("cannot export Lua value of type %s", v.Type())
	}
}

func tableToCty(tbl *lua.LTable) (cty.Value, error) {
	n := tbl.Len()
	count := 0
	arrayLike := true
	tbl.ForEach(func(k, _ lua.LValue) {
		count++
		num, ok := k.(lua.LNumber)
		if !ok || float64(num) != float64(int(num)) || int(num) < 1 || int(num) > n {
			arrayLike = false
		}
	})

	if count == 0 {
		return cty.EmptyObjectVal, nil
	}
	if arrayLike && count == n {
		elems := make([]cty.Value, 0, n)
		for i := 1; i <= n; i++ {
			ev, err := fromLua(tbl.RawGetInt(i))
			if err != nil {
				return cty.NilVal, fmt.Errorf("index %d: %w", i, err)
			}
			elems = append(elems, ev)
		}
		return cty.TupleVal(elems), nil
	}

	attrs := make(map[string]cty.Value, count)
	var firstErr error
	tbl.ForEach(func(k, val lua.LValue) {
		if firstErr != nil {
			return
		}
		var key string
		switch kk := k.(type) {
		case lua.LString:
			key = string(kk)
		case lua.LNumber:
			key = kk.String()
		default:
			firstErr = fmt.Errorf("unsupported table key of type %s", k.Type())
			return
		}
		ev, err := fromLua(val)
		if err != nil {
			firstErr = fmt.Errorf("key %q: %w", key, err)
			return
		}
		attrs[key] = ev
	})
	if firstErr != nil {
		return cty.NilVal, firstErr
	}
	return cty.ObjectVal(attrs), nil
}
