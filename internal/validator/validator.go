package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	tagNameValidate  = "validate"
	tagValueRequired = "required"
	tagValueNested   = "nested"
	tagValueIn       = "in"
	tagValueMax      = "max"
	tagValueMin      = "min"
	tagValueLen      = "len"
	tagValueRegexp   = "regexp"
)

var (
	ErrValidateRequired         = errors.New("is required")
	ErrValidateIncorrectLen     = errors.New("has incorrect length")
	ErrValidateNotMatchRegexp   = errors.New("does not match pattern")
	ErrValidateNotFoundInList   = errors.New("is not one of the allowed values")
	ErrValidateIncorrectNumeric = errors.New("is out of range")
	ErrIncorrectTag             = errors.New("incorrect tag")
	ErrIncorrectTagValue        = errors.New("incorrect tag value")
	ErrIncorrectStruct          = errors.New("incorrect struct")
)

type ValidationError struct {
	Field string
	Err   error
}

func (v ValidationError) Error() string {
	return v.Field + " " + v.Err.Error()
}

func (v ValidationError) Unwrap() error {
	return v.Err
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, e := range v {
		errs = append(errs, e)
	}
	return errs
}

type rule struct {
	name string
	arg  string
}

type zeroer interface {
	IsZero() bool
}

// Validate checks the `validate` tags of a struct (or pointer to struct).
// Violations are returned as ValidationErrors, in field order; malformed
// tags are returned as plain errors.
func Validate(v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ErrIncorrectStruct
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return ErrIncorrectStruct
	}

	var errs ValidationErrors
	if err := validateStruct(rv, &errs); err != nil {
		return err
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateStruct(rv reflect.Value, errs *ValidationErrors) error {
	t := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		rules, err := parseValidateTag(sf.Tag.Get(tagNameValidate))
		if err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}
		field := rv.Field(i)
		name := fieldName(sf)

		for _, r := range rules {
			if r.name == tagValueNested {
				nested := reflect.Indirect(field)
				if !nested.IsValid() {
					break
				}
				if nested.Kind() != reflect.Struct {
					return fmt.Errorf("field %s: %w", sf.Name, ErrIncorrectTag)
				}
				if err := validateStruct(nested, errs); err != nil {
					return err
				}
				continue
			}
			if r.name == tagValueRequired {
				if isEmpty(field) {
					*errs = append(*errs, ValidationError{Field: name, Err: ErrValidateRequired})
				}
				continue
			}

			if field.Kind() == reflect.Slice || field.Kind() == reflect.Array {
				for j := 0; j < field.Len(); j++ {
					if err := validateValue(name, field.Index(j), r, errs); err != nil {
						return fmt.Errorf("field %s: %w", sf.Name, err)
					}
				}
				continue
			}
			if err := validateValue(name, reflect.Indirect(field), r, errs); err != nil {
				return fmt.Errorf("field %s: %w", sf.Name, err)
			}
		}
	}
	return nil
}

func validateValue(name string, v reflect.Value, r rule, errs *ValidationErrors) error {
	if !v.IsValid() {
		return nil
	}
	fail := func(err error) {
		*errs = append(*errs, ValidationError{Field: name, Err: err})
	}

	switch v.Kind() {
	case reflect.String:
		return validateString(v.String(), r, fail)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return validateNumber(float64(v.Int()), r, fail)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return validateNumber(float64(v.Uint()), r, fail)
	case reflect.Float32, reflect.Float64:
		return validateNumber(v.Float(), r, fail)
	default:
		return ErrIncorrectTag
	}
}

func validateString(s string, r rule, fail func(error)) error {
	switch r.name {
	case tagValueLen, tagValueMin, tagValueMax:
		n, err := strconv.Atoi(r.arg)
		if err != nil {
			return ErrIncorrectTagValue
		}
		length := utf8.RuneCountInString(s)
		if (r.name == tagValueLen && length != n) ||
			(r.name == tagValueMin && length < n) ||
			(r.name == tagValueMax && length > n) {
			fail(ErrValidateIncorrectLen)
		}
	case tagValueRegexp:
		re, err := regexp.Compile(r.arg)
		if err != nil {
			return ErrIncorrectTagValue
		}
		if match := re.FindString(s); len(match) != len(s) {
			fail(ErrValidateNotMatchRegexp)
		}
	case tagValueIn:
		for _, allowed := range strings.Split(r.arg, ",") {
			if s == allowed {
				return nil
			}
		}
		fail(ErrValidateNotFoundInList)
	default:
		return ErrIncorrectTag
	}
	return nil
}

func validateNumber(n float64, r rule, fail func(error)) error {
	switch r.name {
	case tagValueMin, tagValueMax:
		limit, err := strconv.ParseFloat(r.arg, 64)
		if err != nil {
			return ErrIncorrectTagValue
		}
		if (r.name == tagValueMin && n < limit) || (r.name == tagValueMax && n > limit) {
			fail(ErrValidateIncorrectNumeric)
		}
	case tagValueIn:
		for _, s := range strings.Split(r.arg, ",") {
			allowed, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return ErrIncorrectTagValue
			}
			if n == allowed {
				return nil
			}
		}
		fail(ErrValidateNotFoundInList)
	default:
		return ErrIncorrectTag
	}
	return nil
}

func parseValidateTag(tag string) ([]rule, error) {
	if tag == "" {
		return nil, nil
	}
	parts := strings.Split(tag, "|")
	rules := make([]rule, 0, len(parts))
	for _, part := range parts {
		name, arg, hasArg := strings.Cut(part, ":")
		switch name {
		case tagValueRequired, tagValueNested:
			if hasArg {
				return nil, ErrIncorrectTag
			}
		case tagValueIn, tagValueMin, tagValueMax, tagValueLen, tagValueRegexp:
			if !hasArg || arg == "" {
				return nil, ErrIncorrectTagValue
			}
		default:
			return nil, ErrIncorrectTag
		}
		rules = append(rules, rule{name: name, arg: arg})
	}
	return rules, nil
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	}
	if z, ok := v.Interface().(zeroer); ok {
		return z.IsZero()
	}
	return v.IsZero()
}

// fieldName prefers the JSON name so messages match request bodies.
func fieldName(sf reflect.StructField) string {
	if tag := sf.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return sf.Name
}
