package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/soaringjerry/stackit/internal/services"
)

const maxBodyBytes = 1 << 20

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("board_tag", func(fl validator.FieldLevel) bool {
		return services.ValidTag(services.Tag(fl.Field().String()))
	})
}

type submitQuestionRequest struct {
	Title       string   `json:"title" validate:"required,max=300"`
	Description string   `json:"description" validate:"required,max=20000"`
	Tags        []string `json:"tags" validate:"required,min=1,dive,board_tag"`
}

type answerRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

type voteRequest struct {
	Type string `json:"type" validate:"required,oneof=like dislike"`
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// decodeBody reads a JSON payload and runs struct validation. Failures come
// back as invalid service errors so they share the error mapping.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return services.NewInvalidError(fmt.Sprintf("malformed body: %v", err))
	}
	if err := validate.Struct(dst); err != nil {
		return services.NewInvalidError(describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
