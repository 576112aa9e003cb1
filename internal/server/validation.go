package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var dateLayouts = []string{"02/01/2006", "2006-01-02"}

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("server: unexpected validator engine")
	}
	v.RegisterTagNameFunc(publicName)
	if err := v.RegisterValidation("kaizen_date", validKaizenDate); err != nil {
		return fmt.Errorf("server: register kaizen_date: %w", err)
	}
	return nil
}

// validKaizenDate accepts a calendar date written DD/MM/YYYY or YYYY-MM-DD.
func validKaizenDate(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}

// publicName reports fields by their json or form name.
func publicName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// bindError marks request decoding and validation failures as client errors.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: field %s failed %s validation", errBadRequest, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}
