package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"crm/pkg/errutil"
)

type Validator interface {
	Validate(value interface{}) error
}

// Form validates the fields of a struct against named validators.
// Fields are matched by their json tag, falling back to the schema tag,
// then the Go field name (used for embedded structs).
type Form struct {
	validators map[string]Validator
}

func MustForm(validators map[string]Validator) *Form {
	for name, v := range validators {
		if v == nil {
			panic(fmt.Sprintf("nil validator for field %s", name))
		}
	}
	return &Form{validators: validators}
}

func (f *Form) Validate(value interface{}) error {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errors.New("expect non-nil struct")
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return errors.New("expect struct")
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)

		v, ok := f.validators[fieldName(field)]
		if !ok {
			continue
		}

		if err := v.Validate(rv.Field(i).Interface()); err != nil {
			return errutil.ValidationError(fmt.Errorf("%s: %v", fieldName(field), err))
		}
	}

	return nil
}

func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "schema"} {
		if t := field.Tag.Get(tag); t != "" {
			if name := strings.Split(t, ",")[0]; name != "" && name != "-" {
				return name
			}
		}
	}
	return field.Name
}

type String struct {
	Optional bool
	MinLen   int
	MaxLen   int
	Regex    *regexp.Regexp
	In       []string
}

func (v *String) Validate(value interface{}) error {
	p, ok := value.(*string)
	if !ok {
		return errors.New("expect *string")
	}

	if p == nil {
		if v.Optional {
			return nil
		}
		return errors.New("is required")
	}

	s := *p
	if v.MinLen > 0 && len(s) < v.MinLen {
		return fmt.Errorf("min length is %d", v.MinLen)
	}
	if v.MaxLen > 0 && len(s) > v.MaxLen {
		return fmt.Errorf("max length is %d", v.MaxLen)
	}
	if v.Regex != nil && !v.Regex.MatchString(s) {
		return errors.New("invalid format")
	}
	if len(v.In) > 0 {
		for _, allowed := range v.In {
			if s == allowed {
				return nil
			}
		}
		return fmt.Errorf("must be one of %v", v.In)
	}

	return nil
}

type UInt64 struct {
	Optional bool
}

func (v *UInt64) Validate(value interface{}) error {
	p, ok := value.(*uint64)
	if !ok {
		return errors.New("expect *uint64")
	}

	if p == nil && !v.Optional {
		return errors.New("is required")
	}

	return nil
}

type UInt32 struct {
	Optional bool
}

func (v *UInt32) Validate(value interface{}) error {
	p, ok := value.(*uint32)
	if !ok {
		return errors.New("expect *uint32")
	}

	if p == nil && !v.Optional {
		return errors.New("is required")
	}

	return nil
}

type Float64 struct {
	Optional bool
	Min      *float64
	Max      *float64
}

func (v *Float64) Validate(value interface{}) error {
	p, ok := value.(*float64)
	if !ok {
		return errors.New("expect *float64")
	}

	if p == nil {
		if v.Optional {
			return nil
		}
		return errors.New("is required")
	}

	if v.Min != nil && *p < *v.Min {
		return fmt.Errorf("min value is %v", *v.Min)
	}
	if v.Max != nil && *p > *v.Max {
		return fmt.Errorf("max value is %v", *v.Max)
	}

	return nil
}

// Slice validates a slice value and, if Validator is set, each element.
type Slice struct {
	Optional  bool
	MinLen    int
	MaxLen    int
	Validator Validator
}

func (v *Slice) Validate(value interface{}) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		if rv.Kind() == reflect.Ptr && rv.IsNil() && v.Optional {
			return nil
		}
		return errors.New("expect slice")
	}

	if rv.IsNil() {
		if v.Optional {
			return nil
		}
		return errors.New("is required")
	}

	if v.MinLen > 0 && rv.Len() < v.MinLen {
		return fmt.Errorf("min length is %d", v.MinLen)
	}
	if v.MaxLen > 0 && rv.Len() > v.MaxLen {
		return fmt.Errorf("max length is %d", v.MaxLen)
	}

	if v.Validator != nil {
		for i := 0; i < rv.Len(); i++ {
			if err := v.Validator.Validate(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %v", i, err)
			}
		}
	}

	return nil
}
