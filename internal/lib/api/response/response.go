package response

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the envelope every handler returns. Code carries the stable
// error kind so callers can tell "retry now" from "needs operator" from
// "already done" without parsing the message.
type Response struct {
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusOK = 200
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string, status int) Response {
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return Response{
		Status: status,
		Error:  msg,
	}
}

func Fail(code string, msg string, status int) Response {
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return Response{
		Status: status,
		Code:   code,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is required", err.Field()))
		case "min":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is below the allowed minimum", err.Field()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is invalid", err.Field()))
		}
	}

	return Response{
		Status: http.StatusBadRequest,
		Code:   "validation_error",
		Error:  strings.Join(errMsgs, ", "),
	}
}
