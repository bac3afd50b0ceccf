package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var timeType = reflect.TypeOf(time.Time{})

// messageFor renders one rule violation in the API's wording.
func messageFor(fe validator.FieldError, path string) string {
	q := strconv.Quote(path)
	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return q + " is required"
	case "email":
		return q + " must be a valid email"
	case "min":
		if isText(fe) {
			return fmt.Sprintf("%s length must be at least %s characters long", q, fe.Param())
		}
		if isList(fe) {
			return fmt.Sprintf("%s must contain at least %s items", q, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", q, fe.Param())
	case "max":
		if isText(fe) {
			return fmt.Sprintf("%s length must be less than or equal to %s characters long", q, fe.Param())
		}
		if isList(fe) {
			return fmt.Sprintf("%s must contain less than or equal to %s items", q, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", q, fe.Param())
	case "len":
		if isList(fe) {
			return fmt.Sprintf("%s must contain %s items", q, fe.Param())
		}
		return fmt.Sprintf("%s length must be %s characters long", q, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", q, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", q, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", q, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", q, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", q, strings.Join(strings.Fields(fe.Param()), ", "))
	case "eq":
		return fmt.Sprintf("%s must be [%s]", q, fe.Param())
	case "digits":
		return q + " must contain only digits"
	case "objectid":
		return q + " must be a valid identifier"
	case "lnglat":
		return q + " must be [longitude, latitude] with longitude in [-180, 180] and latitude in [-90, 90]"
	case "unique":
		return q + " contains a duplicate value"
	}
	return fmt.Sprintf("%s failed on the %q rule", q, fe.Tag())
}

func isText(fe validator.FieldError) bool {
	return fe.Kind() == reflect.String
}

func isList(fe validator.FieldError) bool {
	k := fe.Kind()
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}

// dottedPath turns a validator namespace ("CreateCase.point.coordinates[1]")
// into the API's path form ("point.coordinates.1").
func dottedPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	ns = strings.ReplaceAll(ns, "[", ".")
	return strings.ReplaceAll(ns, "]", "")
}

// overlaps reports whether path equals, contains, or is contained in one of
// the already reported paths.
func overlaps(reported []string, path string) bool {
	for _, r := range reported {
		if r == path || strings.HasPrefix(r, path+".") || strings.HasPrefix(path, r+".") {
			return true
		}
	}
	return false
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// jsonName returns the field's JSON key, the Go name when untagged, or "-".
func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

func toNumber(v any, coerce bool) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil && finite(f)
	case string:
		if !coerce {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil && finite(f)
	}
	return 0, false
}

// finite rejects the NaN and Inf spellings strconv accepts.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
