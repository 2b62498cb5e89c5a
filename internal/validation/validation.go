// Package validation checks write-path payloads before anything reaches the
// store and renders violations as a sorted, comma-joined message.
package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Clark-Hu/reactive-movies/internal/failure"
)

// MovieInfoInput is the validated shape of a movie info create/update.
type MovieInfoInput struct {
	Name string   `json:"name" validate:"notblank"`
	Year *int     `json:"year" validate:"required,gt=0"`
	Cast []string `json:"cast" validate:"min=1,dive,notblank"`
}

// ReviewInput is the validated shape of a review create.
type ReviewInput struct {
	MovieInfoID *string `json:"movieInfoId" validate:"required"`
	Rating      float64 `json:"rating" validate:"gte=0"`
}

// ReviewUpdateInput is the validated shape of a review update.
type ReviewUpdateInput struct {
	Rating float64 `json:"rating" validate:"gte=0"`
}

// messages maps "<json field>.<tag>" to the user-facing violation.
var messages = map[string]string{
	"name.notblank":        "movieInfo.name must be present",
	"year.required":        "movieInfo.year must not be null",
	"year.gt":              "movieInfo.year must be a positive value",
	"cast.min":             "movieInfo.cast must be present",
	"cast.notblank":        "movieInfo.cast must be present",
	"movieInfoId.required": "rating.movieInfoId : must not be null",
	"rating.gte":           "rating.negative : please pass a non-negative value",
}

// Validator wraps a configured go-playground validator. It is safe for
// concurrent use.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the custom rules used by the services.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{v: v}
}

// Struct validates input and returns a failure.Validation error listing every
// violation, or nil.
func (val *Validator) Struct(input any) error {
	err := val.v.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return failure.New(failure.Validation, 0, err.Error(), err)
	}

	seen := make(map[string]struct{}, len(verrs))
	list := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := messageFor(fe)
		if _, dup := seen[msg]; dup {
			continue
		}
		seen[msg] = struct{}{}
		list = append(list, msg)
	}
	return failure.New(failure.Validation, 0, Join(list), err)
}

// Join sorts and comma-joins violation messages.
func Join(list []string) string {
	sorted := append([]string(nil), list...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func messageFor(fe validator.FieldError) string {
	field := fe.Field()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	if msg, ok := messages[field+"."+fe.Tag()]; ok {
		return msg
	}
	return field + " is invalid"
}
