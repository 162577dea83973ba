package confloader

import (
	"encoding"
	"reflect"
	"strings"
	"time"
)

const (
	tagName    = "koanf"
	defaultTag = "default"
)

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	timeType            = reflect.TypeOf(time.Time{})
)

// schemaField describes one leaf of a schema struct.
type schemaField struct {
	keys         []string
	typ          reflect.Type
	defaultValue string
	hasDefault   bool
	optional     bool
}

func (f schemaField) path() string {
	return strings.Join(f.keys, ".")
}

// required reports whether a value must come from some source.
func (f schemaField) required() bool {
	return !f.optional && !f.hasDefault
}

// schemaFields walks a struct type and returns its leaf fields. Nested
// structs are descended into; embedded structs and ",squash" fields share
// their parent's level. Pointer fields and ",omitempty" fields are optional,
// and so is everything beneath them.
func schemaFields(t reflect.Type) []schemaField {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return walkStruct(t, nil, false, map[reflect.Type]bool{})
}

func walkStruct(t reflect.Type, prefix []string, optional bool, visiting map[reflect.Type]bool) []schemaField {
	if visiting[t] {
		return nil
	}
	visiting[t] = true
	defer delete(visiting, t)

	var fields []schemaField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}

		name, opts := parseTag(sf.Tag.Get(tagName))
		if name == "-" {
			continue
		}

		ft := sf.Type
		fieldOptional := optional || opts["omitempty"]
		if ft.Kind() == reflect.Pointer {
			fieldOptional = true
			ft = ft.Elem()
		}

		if isNested(ft) && (opts["squash"] || (sf.Anonymous && name == "")) {
			fields = append(fields, walkStruct(ft, prefix, fieldOptional, visiting)...)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		if name == "" {
			name = strings.ToLower(sf.Name)
		}
		keys := append(append([]string(nil), prefix...), name)

		if isNested(ft) {
			fields = append(fields, walkStruct(ft, keys, fieldOptional, visiting)...)
			continue
		}

		def, hasDefault := sf.Tag.Lookup(defaultTag)
		fields = append(fields, schemaField{
			keys:         keys,
			typ:          sf.Type,
			defaultValue: def,
			hasDefault:   hasDefault,
			optional:     fieldOptional,
		})
	}
	return fields
}

// parseTag splits `name,opt1,opt2` into the name and a set of options.
func parseTag(tag string) (string, map[string]bool) {
	parts := strings.Split(tag, ",")
	opts := make(map[string]bool, len(parts)-1)
	for _, o := range parts[1:] {
		opts[strings.TrimSpace(o)] = true
	}
	return parts[0], opts
}

// isNested reports whether t is decoded field by field rather than as a value.
func isNested(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t == timeType {
		return false
	}
	return !reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// missingFields returns the required fields absent from the merged tree.
func missingFields(tree map[string]any, fields []schemaField) []string {
	var missing []string
	for _, f := range fields {
		if !f.required() {
			continue
		}
		if !hasPath(tree, f.keys) {
			missing = append(missing, f.path())
		}
	}
	return missing
}

// hasPath reports whether keys resolve in tree. Key matching falls back to
// case-insensitive comparison, as the decoder does. A null section hides
// everything beneath it; any other non-map value on the way down counts as
// present so the type mismatch is reported instead.
func hasPath(tree map[string]any, keys []string) bool {
	_, _, ok := lookupPath(tree, keys)
	return ok
}

// lookupPath walks keys through tree. depth is the number of keys consumed:
// len(keys) when value is the leaf, fewer when a scalar stood in for a section.
func lookupPath(tree map[string]any, keys []string) (value any, depth int, ok bool) {
	cur := tree
	for i, k := range keys {
		v, found := lookupKey(cur, k)
		if !found {
			return nil, i, false
		}
		if i == len(keys)-1 {
			return v, len(keys), true
		}
		if v == nil {
			return nil, i, false
		}
		next, isMap := v.(map[string]any)
		if !isMap {
			return v, i + 1, true
		}
		cur = next
	}
	return nil, 0, false
}

func lookupKey(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
