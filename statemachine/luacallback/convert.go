package luacallback

import (
	"fmt"
	"math"
	"reflect"

	"github.com/Shopify/go-lua"
)

// maxExactInteger is the largest integer a Lua number (float64) holds exactly.
const maxExactInteger = 1 << 53

// pushValue pushes a Go value onto the Lua stack. Unknown types are pushed as
// their fmt representation; they only come back if a script assigns them.
func pushValue(state *lua.State, value any) {
	switch v := value.(type) {
	case nil:
		state.PushNil()
	case string:
		state.PushString(v)
	case bool:
		state.PushBoolean(v)
	case int:
		state.PushInteger(v)
	case int8:
		state.PushInteger(int(v))
	case int16:
		state.PushInteger(int(v))
	case int32:
		state.PushInteger(int(v))
	case int64:
		state.PushInteger(int(v))
	case uint:
		state.PushNumber(float64(v))
	case uint8:
		state.PushInteger(int(v))
	case uint16:
		state.PushInteger(int(v))
	case uint32:
		state.PushNumber(float64(v))
	case uint64:
		state.PushNumber(float64(v))
	case float32:
		state.PushNumber(float64(v))
	case float64:
		state.PushNumber(v)
	case map[string]any:
		if v == nil {
			state.PushNil()

			return
		}

		pushMap(state, v)
	case []any:
		pushSlice(state, v)
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}

		pushSlice(state, items)
	default:
		state.PushString(fmt.Sprint(v))
	}
}

func pushMap(state *lua.State, values map[string]any) {
	state.NewTable()

	for key, value := range values {
		pushValue(state, value)
		state.SetField(-2, key)
	}
}

func pushSlice(state *lua.State, values []any) {
	state.NewTable()

	for i, value := range values {
		pushValue(state, value)
		state.RawSetInt(-2, i+1)
	}
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)

	state.PushNil()

	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}

		state.Pop(1)
	}

	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)

		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)

		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

// tableToGo converts a table with keys 1..n to a slice and anything else to a map.
func tableToGo(state *lua.State, index int) any {
	index = state.AbsIndex(index)

	isArray := true
	maxIndex := 0
	count := 0

	state.PushNil()

	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++

				maxIndex = max(maxIndex, idx)
			} else {
				isArray = false
			}
		}

		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)

		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}

		return result
	}

	return tableToMap(state, index)
}

// normalizeNumber returns integral numbers in the exactly representable range as int.
func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 && math.Abs(value) <= maxExactInteger {
		return int(value)
	}

	return value
}

// changedEntries returns the entries of after that differ from before, plus a
// nil entry for every key the script removed.
func changedEntries(before, after map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, value := range after {
		if previous, ok := before[key]; !ok || !reflect.DeepEqual(previous, value) {
			changes[key] = value
		}
	}

	for key := range before {
		if _, ok := after[key]; !ok {
			changes[key] = nil
		}
	}

	return changes
}
