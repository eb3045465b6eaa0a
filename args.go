package promptreg

import (
	"fmt"
	"reflect"
	"sync"
)

type argField struct {
	index int
	name  string
}

var argSchemaCache sync.Map // reflect.Type -> []argField

// ArgsFrom builds Args from a struct whose fields carry `prompt:"name"` tags.
// Values are formatted with fmt; nil pointers are skipped. Untagged fields and
// fields tagged "-" are ignored. A struct with no tagged field is rejected.
func ArgsFrom(v any) (Args, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil argument struct", ErrInvalidArgument)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil argument struct", ErrInvalidArgument)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: want struct, got %s", ErrInvalidArgument, rv.Kind())
	}
	fields := argFields(rv.Type())
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s has no prompt-tagged fields", ErrInvalidArgument, rv.Type())
	}
	out := make(Args, len(fields))
	for _, f := range fields {
		fv := rv.Field(f.index)
		for fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface {
			if fv.IsNil() {
				break
			}
			fv = fv.Elem()
		}
		if (fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface) && fv.IsNil() {
			continue
		}
		out[f.name] = fmt.Sprint(fv.Interface())
	}
	return out, nil
}

func argFields(typ reflect.Type) []argField {
	if cached, ok := argSchemaCache.Load(typ); ok {
		return cached.([]argField)
	}
	var fields []argField
	for i := range typ.NumField() {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("prompt")
		if tag == "" || tag == "-" {
			continue
		}
		fields = append(fields, argField{index: i, name: tag})
	}
	argSchemaCache.Store(typ, fields)
	return fields
}
