package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

// Update whitelists. A request naming any other key is rejected as a whole.
var (
	TourUpdateFields = []string{
		"name", "description", "shortDescription", "category", "circuit",
		"destinations", "duration", "pricing", "availability", "inclusions",
		"itinerary", "media", "requirements", "seo", "isActive", "isFeatured",
	}
	ProfileUpdateFields = []string{"firstName", "lastName", "phone", "country", "preferences", "profile"}
	UserUpdateFields    = []string{
		"firstName", "lastName", "email", "role", "phone", "country",
		"isActive", "preferences", "profile",
	}
)

// Patch holds the raw top-level values of a partial update.
type Patch map[string]json.RawMessage

// DecodePatch parses body as a JSON object and checks its keys against
// allowed before anything is decoded into typed values.
func DecodePatch(body []byte, allowed []string) (Patch, error) {
	var patch Patch
	if err := json.Unmarshal(body, &patch); err != nil || patch == nil {
		return nil, apperrors.NewValidationError("Invalid JSON payload", nil)
	}

	permitted := make(map[string]struct{}, len(allowed))
	for _, key := range allowed {
		permitted[key] = struct{}{}
	}
	var rejected []string
	for key := range patch {
		if _, ok := permitted[key]; !ok {
			rejected = append(rejected, key)
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		details := make([]apperrors.FieldError, len(rejected))
		for i, key := range rejected {
			details[i] = apperrors.FieldError{Field: key, Message: key + " cannot be updated"}
		}
		return nil, apperrors.NewValidationError("Invalid updates", details)
	}
	return patch, nil
}

// Decode unmarshals the whole patch into dst, typically a struct of pointers.
func (p Patch) Decode(dst any) error {
	raw, err := json.Marshal(map[string]json.RawMessage(p))
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.NewValidationError("Invalid JSON payload", typeDetails(err))
	}
	return nil
}

// ApplyTo replaces every field of the struct dst points to whose json name is
// present in the patch. Nested objects are replaced, not merged.
func (p Patch) ApplyTo(dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return apperrors.NewInternalError(fmt.Errorf("patch target must be a struct pointer, got %T", dst))
	}
	target := rv.Elem()
	fields := jsonFields(target.Type())

	for key, raw := range p {
		idx, ok := fields[key]
		if !ok {
			return apperrors.NewValidationError("Invalid updates", []apperrors.FieldError{{Field: key, Message: key + " cannot be updated"}})
		}
		field := target.Field(idx)
		fresh := reflect.New(field.Type())
		if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
			return apperrors.NewValidationError("Invalid JSON payload", []apperrors.FieldError{{Field: key, Message: key + " has the wrong type"}})
		}
		field.Set(fresh.Elem())
	}
	return nil
}

func jsonFields(t reflect.Type) map[string]int {
	fields := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields[name] = i
	}
	return fields
}

func typeDetails(err error) []apperrors.FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return []apperrors.FieldError{{Field: typeErr.Field, Message: typeErr.Field + " has the wrong type"}}
	}
	return nil
}
