// Package validation checks request data against declared shapes.
//
// A shape is a Go struct whose fields carry `json` names and `validate`
// rules (github.com/go-playground/validator/v10). Validation runs in two
// passes over the raw source (a decoded JSON object, query values, or path
// params):
//
//  1. a structural walk that rejects (or drops) fields the shape does not
//     declare, flags type mismatches and, for string sources, coerces
//     numbers and booleans;
//  2. the validator's rule pass over the decoded struct.
//
// Every violation from both passes is collected, keyed by dotted path
// ("animalDetails.type", "roles.0"), and returned as a single BadRequest.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/rescue-api/internal/apperror"
	"github.com/tbourn/rescue-api/internal/domain"
)

// InvalidDataMessage is the message carried by every validation failure.
const InvalidDataMessage = "Invalid data"

var digitsRE = regexp.MustCompile(`^[0-9]+$`)

// Options controls one validation call.
type Options struct {
	// AllowUnknown drops undeclared fields instead of reporting them.
	AllowUnknown bool
	// Coerce converts string values to the declared scalar kind. Used for
	// query strings and path params.
	Coerce bool
}

// Validator is safe for concurrent use. Struct metadata is cached across
// calls; no per-request state is kept.
type Validator struct {
	v      *validator.Validate
	shapes sync.Map // reflect.Type -> *shape
}

// New returns a Validator with json field naming and the custom rules
// lnglat, objectid and digits registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := jsonName(f)
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("lnglat", validLngLat)
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return domain.IsObjectID(fl.Field().String())
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsRE.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// validLngLat accepts a [longitude, latitude] pair within range.
func validLngLat(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Slice || f.Len() != 2 {
		return false
	}
	lon, lat := f.Index(0).Float(), f.Index(1).Float()
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// Bind validates raw against the shape of dst (a pointer to struct) and, on
// success, fills dst. On failure it returns a BadRequest carrying one field
// error per violated path.
func (vd *Validator) Bind(raw map[string]any, dst any, opts Options) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("validation: dst must be a pointer to struct, got %T", dst)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	errs := apperror.Fields{}
	clean := vd.walkObject(rv.Elem().Type(), raw, "", opts, errs)

	b, err := json.Marshal(clean)
	if err == nil {
		err = json.Unmarshal(b, dst)
	}
	if err != nil {
		return apperror.BadRequest(errs).WithMessage(InvalidDataMessage).Wrap(err)
	}

	walked := make([]string, 0, len(errs))
	for path := range errs {
		walked = append(walked, path)
	}
	for path, msg := range vd.Struct(dst) {
		if !overlaps(walked, path) {
			errs[path] = msg
		}
	}
	if len(errs) > 0 {
		return apperror.BadRequest(errs).WithMessage(InvalidDataMessage)
	}
	return nil
}

// Struct runs the rule pass only and returns the violations, or nil.
func (vd *Validator) Struct(s any) apperror.Fields {
	err := vd.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Fields{"value": err.Error()}
	}
	out := make(apperror.Fields, len(verrs))
	for _, fe := range verrs {
		path := dottedPath(fe.Namespace())
		if _, seen := out[path]; !seen {
			out[path] = messageFor(fe, path)
		}
	}
	return out
}

// walkObject checks raw against the struct type t and returns the subset of
// raw that may be decoded into t.
func (vd *Validator) walkObject(t reflect.Type, raw map[string]any, prefix string, opts Options, errs apperror.Fields) map[string]any {
	sh := vd.shapeOf(t)
	out := make(map[string]any, len(raw))
	for key, val := range raw {
		path := join(prefix, key)
		ft, ok := sh.fields[key]
		if !ok {
			if !opts.AllowUnknown {
				errs[path] = fmt.Sprintf("%q is not allowed", path)
			}
			continue
		}
		if v, ok := vd.walkValue(ft, val, path, opts, errs); ok {
			out[key] = v
		}
	}
	return out
}

// walkValue checks one value against type t. ok is false when the value was
// rejected and must not be decoded.
func (vd *Validator) walkValue(t reflect.Type, val any, path string, opts Options, errs apperror.Fields) (any, bool) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if val == nil {
		return nil, true
	}
	switch t.Kind() {
	case reflect.Struct:
		if t.ConvertibleTo(timeType) {
			return val, true
		}
		m, ok := val.(map[string]any)
		if !ok {
			errs[path] = fmt.Sprintf("%q must be of type object", path)
			return nil, false
		}
		return vd.walkObject(t, m, path, opts, errs), true

	case reflect.Slice, reflect.Array:
		items, ok := val.([]any)
		if !ok {
			if !opts.Coerce {
				errs[path] = fmt.Sprintf("%q must be an array", path)
				return nil, false
			}
			items = []any{val}
		}
		out := make([]any, 0, len(items))
		valid := true
		for i, it := range items {
			v, ok := vd.walkValue(t.Elem(), it, join(path, strconv.Itoa(i)), opts, errs)
			valid = valid && ok
			out = append(out, v)
		}
		if !valid {
			return nil, false
		}
		return out, true

	case reflect.String:
		if _, ok := val.(string); !ok {
			errs[path] = fmt.Sprintf("%q must be a string", path)
			return nil, false
		}
		return val, true

	case reflect.Bool:
		switch x := val.(type) {
		case bool:
			return x, true
		case string:
			if opts.Coerce {
				switch strings.ToLower(strings.TrimSpace(x)) {
				case "true", "1":
					return true, true
				case "false", "0":
					return false, true
				}
			}
		}
		errs[path] = fmt.Sprintf("%q must be a boolean", path)
		return nil, false

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		n, ok := toNumber(val, opts.Coerce)
		if !ok {
			errs[path] = fmt.Sprintf("%q must be a number", path)
			return nil, false
		}
		if t.Kind() != reflect.Float32 && t.Kind() != reflect.Float64 && n != float64(int64(n)) {
			errs[path] = fmt.Sprintf("%q must be an integer", path)
			return nil, false
		}
		return n, true
	}
	return val, true
}

// shape caches the json-name -> field type table of a struct.
type shape struct {
	fields map[string]reflect.Type
}

func (vd *Validator) shapeOf(t reflect.Type) *shape {
	if s, ok := vd.shapes.Load(t); ok {
		return s.(*shape)
	}
	sh := &shape{fields: make(map[string]reflect.Type, t.NumField())}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := jsonName(f)
		if name == "-" {
			continue
		}
		sh.fields[name] = f.Type
	}
	actual, _ := vd.shapes.LoadOrStore(t, sh)
	return actual.(*shape)
}
