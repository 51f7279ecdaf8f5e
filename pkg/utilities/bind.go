package utilities

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/frostx76/microservices-project/pkg/apperr"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the process-wide validator. Field names in its errors
// are the json tag names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// DecodeJSON reads a JSON body into dst. Unknown fields are ignored.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", apperr.ErrMalformed)
		}
		return fmt.Errorf("%w: %v", apperr.ErrMalformed, err)
	}
	return nil
}

// Bind decodes a request into dst and validates it. JSON bodies are decoded
// as is; form bodies and query strings are accepted for structs whose fields
// are all strings, keyed by json tag.
func Bind(r *http.Request, dst any) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrMalformed, err)
		}
		if err := fromValues(r.Form, dst); err != nil {
			return err
		}
	case "application/json":
		if err := DecodeJSON(r, dst); err != nil {
			return err
		}
	default:
		if r.ContentLength > 0 {
			if err := DecodeJSON(r, dst); err != nil {
				return err
			}
		} else if err := fromValues(r.URL.Query(), dst); err != nil {
			return err
		}
	}
	return Validate(dst)
}

func fromValues(vals map[string][]string, dst any) error {
	flat := make(map[string]string, len(vals))
	for k, v := range vals {
		if len(v) > 0 {
			flat[k] = v[0]
		}
	}
	b, err := json.Marshal(flat)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrMalformed, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrMalformed, err)
	}
	return nil
}

// Validate runs struct tags on v and turns failures into apperr.ErrValidation.
func Validate(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
