package luacallback

// Bridge moves luggage in and out of a script. ToLua produces the value of the
// luggage global. After an event ran, FromLua receives the top-level entries
// the script changed; a nil value means the script removed the entry.
type Bridge[L any] interface {
	ToLua(luggage L) map[string]any
	FromLua(values map[string]any, luggage L)
}

type funcBridge[L any] struct {
	toLua   func(L) map[string]any
	fromLua func(map[string]any, L)
}

func (b funcBridge[L]) ToLua(luggage L) map[string]any {
	if b.toLua == nil {
		return nil
	}

	return b.toLua(luggage)
}

func (b funcBridge[L]) FromLua(values map[string]any, luggage L) {
	if b.fromLua != nil {
		b.fromLua(values, luggage)
	}
}

// NewBridge builds a Bridge from two functions. Either may be nil: a nil
// toLua exposes no luggage, a nil fromLua makes events read-only.
func NewBridge[L any](toLua func(L) map[string]any, fromLua func(map[string]any, L)) Bridge[L] { //nolint:ireturn
	return funcBridge[L]{toLua: toLua, fromLua: fromLua}
}

// MapBridge serves map[string]any luggage. Changed entries are stored back
// into the map and entries set to nil in Lua are deleted.
type MapBridge struct{}

var _ Bridge[map[string]any] = MapBridge{}

func (MapBridge) ToLua(luggage map[string]any) map[string]any {
	return luggage
}

func (MapBridge) FromLua(values map[string]any, luggage map[string]any) {
	if luggage == nil {
		return
	}

	for key, value := range values {
		if value == nil {
			delete(luggage, key)

			continue
		}

		luggage[key] = value
	}
}
