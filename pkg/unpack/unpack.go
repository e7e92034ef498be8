// Package unpack unmarshals JSON into trees of Go structs whose
// interface-typed fields are reconstructed from a "kind" discriminator.
//
// A Reflector is built from template values of every concrete variant.
// Each template must carry exactly one string field with an `unpack` struct
// tag; the field's JSON name is the discriminator key and the tag value
// (or the struct's type name when the tag is empty) is the discriminator
// value that selects the variant during unmarshaling.
package unpack

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

type binding struct {
	typ reflect.Type
	key string
}

type Reflector map[string]binding

// New creates a Reflector and registers each template.  It panics on a
// malformed template since registration happens at package init time.
func New(templates ...any) Reflector {
	r := make(Reflector)
	for _, t := range templates {
		r.Add(t)
	}
	return r
}

func (r Reflector) Add(template any) Reflector {
	typ := reflect.TypeOf(template)
	if typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("unpack: template %T is not a struct", template))
	}
	key, value, err := discriminator(typ)
	if err != nil {
		panic(fmt.Sprintf("unpack: %s", err))
	}
	if existing, ok := r[value]; ok && existing.typ != typ {
		panic(fmt.Sprintf("unpack: %q bound to both %s and %s", value, existing.typ, typ))
	}
	r[value] = binding{typ: typ, key: key}
	return r
}

func discriminator(typ reflect.Type) (key, value string, err error) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("unpack")
		if !ok {
			continue
		}
		if f.Type.Kind() != reflect.String {
			return "", "", fmt.Errorf("%s.%s: unpack tag on non-string field", typ, f.Name)
		}
		if key != "" {
			return "", "", fmt.Errorf("%s: multiple unpack tags", typ)
		}
		key = jsonName(f)
		value = tag
		if value == "" {
			value = typ.Name()
		}
	}
	if key == "" {
		return "", "", fmt.Errorf("%s: no unpack tag", typ)
	}
	return key, value, nil
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

// Unmarshal decodes buf into result, which must be a non-nil pointer.
// Interface-typed targets anywhere in the result are dispatched through
// the registry; everything else decodes as encoding/json would.
func (r Reflector) Unmarshal(buf []byte, result any) error {
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("unpack: result must be a non-nil pointer, got %T", result)
	}
	return r.decode(buf, rv.Elem())
}

// UnmarshalObject marshals v back to JSON and decodes the result.  It is
// a convenience for re-typing generic JSON objects (e.g. a decoded
// map[string]any from an embedding API).
func (r Reflector) UnmarshalObject(v any, result any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("unpack: %w", err)
	}
	return r.Unmarshal(b, result)
}

func (r Reflector) decode(raw json.RawMessage, v reflect.Value) error {
	if isNull(raw) {
		return nil
	}
	switch v.Kind() {
	case reflect.Interface:
		concrete, err := r.lookup(raw)
		if err != nil {
			return err
		}
		p := reflect.New(concrete)
		if err := r.decode(raw, p.Elem()); err != nil {
			return err
		}
		if !p.Type().Implements(v.Type()) {
			if !concrete.Implements(v.Type()) {
				return fmt.Errorf("unpack: %s does not implement %s", concrete, v.Type())
			}
			v.Set(p.Elem())
			return nil
		}
		v.Set(p)
		return nil
	case reflect.Pointer:
		p := reflect.New(v.Type().Elem())
		if err := r.decode(raw, p.Elem()); err != nil {
			return err
		}
		v.Set(p)
		return nil
	case reflect.Struct:
		return r.decodeStruct(raw, v)
	case reflect.Slice:
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return fmt.Errorf("unpack: %w", err)
		}
		slice := reflect.MakeSlice(v.Type(), len(elems), len(elems))
		for i, elem := range elems {
			if err := r.decode(elem, slice.Index(i)); err != nil {
				return err
			}
		}
		v.Set(slice)
		return nil
	case reflect.Map:
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("unpack: %w", err)
		}
		m := reflect.MakeMapWithSize(v.Type(), len(entries))
		for key, entry := range entries {
			elem := reflect.New(v.Type().Elem()).Elem()
			if err := r.decode(entry, elem); err != nil {
				return err
			}
			m.SetMapIndex(reflect.ValueOf(key).Convert(v.Type().Key()), elem)
		}
		v.Set(m)
		return nil
	default:
		if err := json.Unmarshal(raw, v.Addr().Interface()); err != nil {
			return fmt.Errorf("unpack: %w", err)
		}
		return nil
	}
}

func (r Reflector) decodeStruct(raw json.RawMessage, v reflect.Value) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("unpack: %w", err)
	}
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.PkgPath != "" {
			continue
		}
		fraw, ok := fields[jsonName(f)]
		if !ok {
			continue
		}
		if err := r.decode(fraw, v.Field(i)); err != nil {
			return fmt.Errorf("field %q: %w", jsonName(f), err)
		}
	}
	return nil
}

func (r Reflector) lookup(raw json.RawMessage) (reflect.Type, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("unpack: cannot probe variant object: %w", err)
	}
	// All registered variants share a discriminator key in practice, but
	// each binding records its own, so scan for the first key that both
	// appears in the object and resolves in the registry.
	for _, b := range r {
		kindRaw, ok := probe[b.key]
		if !ok {
			continue
		}
		var kind string
		if err := json.Unmarshal(kindRaw, &kind); err != nil {
			continue
		}
		if bound, ok := r[kind]; ok {
			return bound.typ, nil
		}
		return nil, fmt.Errorf("unpack: unknown variant %q", kind)
	}
	return nil, fmt.Errorf("unpack: object has no discriminator field")
}

func isNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
