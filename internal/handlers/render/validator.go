package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxDeviceIDLength = 128

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("deviceid", validateDeviceID)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// Device id is an opaque client string: printable ASCII only, so it is safe in logs
func validateDeviceID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if len(id) > maxDeviceIDLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		if id[i] < 0x20 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
