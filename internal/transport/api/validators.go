package api

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"

	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// validateSlug проверяет, что поле - короткая машинная метка (строчные латинские
// буквы, цифры, дефис и подчеркивание). Используется для источника бонуса,
// который попадает в product_ref журнала.
func validateSlug(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return slugPattern.MatchString(str)
}

func registerValidators() error {
	v, _ := binding.Validator.Engine().(*validator.Validate)
	if err := v.RegisterValidation("slug", validateSlug); err != nil {
		return fmt.Errorf("validator registration: %s", err.Error())
	}
	return nil
}
