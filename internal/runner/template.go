package runner

import (
	"errors"
	"fmt"
	"os"
	"reflect"
)

// ExpandTemplates expands ${VAR} references in place in the struct, or slice
// of structs, pointed to by in.
//
// Strings, *string and []string fields are expanded only when tagged with
// `template` (`template:"-"` opts out). map[string]string fields are always
// expanded. Nested structs, *struct, []struct and []*struct are walked
// regardless of tags. Unexported fields and nil values are left alone.
func ExpandTemplates[T any](in *T, variables map[string]string) error {
	if in == nil {
		return nil
	}

	e := templateExpander{variables: variables}
	v := reflect.ValueOf(in).Elem()
	switch v.Kind() {
	case reflect.Struct:
		return e.walkStruct(v)
	case reflect.Slice:
		return e.walkSlice(v, false)
	default:
		return fmt.Errorf("ExpandTemplates expects *struct or *[]struct; got *%s", v.Type())
	}
}

type templateExpander struct {
	variables map[string]string
}

func (e templateExpander) walkStruct(v reflect.Value) error {
	typ := v.Type()
	for i := range typ.NumField() {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag, ok := sf.Tag.Lookup("template")
		if err := e.walkField(v.Field(i), ok && tag != "-"); err != nil {
			return fmt.Errorf("%s: %w", sf.Name, err)
		}
	}
	return nil
}

func (e templateExpander) walkField(field reflect.Value, tagged bool) error {
	switch field.Kind() {
	case reflect.String:
		if !tagged {
			return nil
		}
		return e.setString(field)

	case reflect.Pointer:
		if field.IsNil() {
			return nil
		}
		elem := field.Elem()
		switch elem.Kind() {
		case reflect.Struct:
			return e.walkStruct(elem)
		case reflect.String:
			if !tagged {
				return nil
			}
			// A fresh pointer keeps values shared with other structs untouched.
			fresh := reflect.New(elem.Type())
			fresh.Elem().SetString(elem.String())
			if err := e.setString(fresh.Elem()); err != nil {
				return err
			}
			field.Set(fresh)
		}
		return nil

	case reflect.Map:
		if field.IsNil() || field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		expanded, err := ExpandMap(field.Convert(reflect.TypeFor[map[string]string]()).Interface().(map[string]string), e.variables)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(expanded).Convert(field.Type()))
		return nil

	case reflect.Struct:
		return e.walkStruct(field)

	case reflect.Slice:
		return e.walkSlice(field, tagged)
	}
	return nil
}

func (e templateExpander) walkSlice(v reflect.Value, tagged bool) error {
	if v.IsNil() {
		return nil
	}

	elemTyp := v.Type().Elem()
	for i := range v.Len() {
		el := v.Index(i)
		var err error
		switch {
		case elemTyp.Kind() == reflect.String:
			if !tagged {
				return nil
			}
			err = e.setString(el)
		case elemTyp.Kind() == reflect.Struct:
			err = e.walkStruct(el)
		case elemTyp.Kind() == reflect.Pointer && elemTyp.Elem().Kind() == reflect.Struct:
			if el.IsNil() {
				continue
			}
			err = e.walkStruct(el.Elem())
		default:
			return nil
		}
		if err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

func (e templateExpander) setString(v reflect.Value) error {
	expanded, err := Expand(v.String(), e.variables)
	if err != nil {
		return err
	}
	v.SetString(expanded)
	return nil
}

// Expand replaces $VAR and ${VAR} references using variables. Every reference
// to a variable missing from variables is reported.
func Expand(value string, variables map[string]string) (string, error) {
	var errs error

	result := os.Expand(value, func(key string) string {
		if val, ok := variables[key]; ok {
			return val
		}
		errs = errors.Join(errs, fmt.Errorf("environment variable %q is not in the allowed list", key))
		return ""
	})

	if errs != nil {
		return "", errs
	}

	return result, nil
}

// ExpandMap expands every value of values into a new map.
func ExpandMap(values map[string]string, variables map[string]string) (map[string]string, error) {
	if values == nil {
		return nil, nil
	}

	result := make(map[string]string, len(values))
	var errs error

	for k, v := range values {
		expanded, err := Expand(v, variables)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		result[k] = expanded
	}

	if errs != nil {
		return nil, errs
	}

	return result, nil
}
