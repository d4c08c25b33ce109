package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	pkghttp "github.com/ki2helper/panel-api/pkg/http"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. On failure it writes the error response (400 for malformed
// JSON, 422 for schema rejection) and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		pkghttp.WriteUnprocessable(w, validationMessage(err))
		return false
	}

	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Validation failed"
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "Validation failed: " + strings.Join(fields, ", ")
}
