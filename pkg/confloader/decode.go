package confloader

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"
)

// validate is shared; validator caches struct metadata and is safe for
// concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report koanf paths rather than Go field names.
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _ := parseTag(sf.Tag.Get(tagName))
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decoderConfig returns the mapstructure configuration used to coerce the
// merged tree into target. Input is weakly typed because environment
// variables always arrive as strings.
func decoderConfig(target any) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			rejectEmptyScalarHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		Result:           target,
		WeaklyTypedInput: true,
		Squash:           true,
		TagName:          tagName,
	}
}

// rejectEmptyScalarHookFunc fails an empty string bound for a number or a
// bool. Weak typing would otherwise turn it into the zero value.
func rejectEmptyScalarHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if s, ok := data.(string); !ok || s != "" {
			return data, nil
		}
		if isScalarKind(t.Kind()) {
			return nil, fmt.Errorf("empty string is not a valid %s", t.Kind())
		}
		return data, nil
	}
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool:
		return true
	}
	return false
}

// isNullable reports whether a null value is a legal setting for kind.
func isNullable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

// checkCoercion decodes every present leaf of the merged tree on its own so
// a failure names the field. All failures are reported together.
func checkCoercion(tree map[string]any, fields []schemaField) error {
	var errs error
	reported := make(map[string]bool)
	for _, f := range fields {
		value, depth, ok := lookupPath(tree, f.keys)
		if !ok {
			continue
		}

		if depth < len(f.keys) {
			section := strings.Join(f.keys[:depth], ".")
			if !reported[section] {
				reported[section] = true
				errs = multierr.Append(errs, ErrTypeCoercion.WithDetails(section).
					Wrap(fmt.Errorf("expected a section, got %T", value)))
			}
			continue
		}

		if err := coerceLeaf(value, f.typ); err != nil {
			errs = multierr.Append(errs, ErrTypeCoercion.WithDetails(f.path()).Wrap(err))
		}
	}
	return errs
}

// coerceLeaf decodes value into a fresh value of typ and discards it.
func coerceLeaf(value any, typ reflect.Type) error {
	if value == nil {
		if isNullable(typ.Kind()) {
			return nil
		}
		return fmt.Errorf("null is not a valid %s", typ)
	}

	dec, err := mapstructure.NewDecoder(decoderConfig(reflect.New(typ).Interface()))
	if err != nil {
		return err
	}
	return dec.Decode(value)
}

// decode unmarshals the merged configuration into target. Leaf failures are
// caught by checkCoercion first, so errors here carry only the target type.
func decode(k *koanf.Koanf, target any) error {
	err := k.UnmarshalWithConf("", target, koanf.UnmarshalConf{
		Tag:           tagName,
		DecoderConfig: decoderConfig(target),
	})
	if err != nil {
		return ErrTypeCoercion.WithDetails(fmt.Sprintf("%T", target)).Wrap(err)
	}
	return nil
}

// validateShape runs validate tag constraints on target.
func validateShape(target any) error {
	err := validate.Struct(target)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrValidation.Wrap(err)
	}

	var all error
	for _, fe := range verrs {
		all = multierr.Append(all, ErrValidation.WithDetails(
			fmt.Sprintf("%s: failed %q", fieldNamespace(fe), fe.Tag())))
	}
	return all
}

// fieldNamespace drops the root type name: "AppConfig.server.port" -> "server.port".
func fieldNamespace(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// checkTarget ensures target is a non-nil pointer to a struct.
func checkTarget(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrInvalidTarget.WithDetails(fmt.Sprintf("%T", target))
	}
	return nil
}
