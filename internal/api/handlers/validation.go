package handlers

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/baechuer/tour-eats/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// report fields by their query parameter name
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
}

type searchQuery struct {
	Q string `query:"q" validate:"required,max=200"`
}

type selectionQuery struct {
	Name    string `query:"name" validate:"required,max=200"`
	Address string `query:"address" validate:"required,max=300"`
}

type pageQuery struct {
	Q       string `query:"q" validate:"max=200"`
	Name    string `query:"name" validate:"required_with=Address,max=200"`
	Address string `query:"address" validate:"required_with=Name,max=300"`
}

func bindSearch(r *http.Request) (searchQuery, error) {
	q := searchQuery{Q: param(r, "q")}
	return q, validateRequest(q)
}

func bindSelection(r *http.Request) (selectionQuery, error) {
	q := selectionQuery{Name: param(r, "name"), Address: param(r, "address")}
	return q, validateRequest(q)
}

func bindPage(r *http.Request) (pageQuery, error) {
	q := pageQuery{Q: param(r, "q"), Name: param(r, "name"), Address: param(r, "address")}
	return q, validateRequest(q)
}

func param(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.ErrValidation(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return domain.ErrValidation(strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_with":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
