// Package response содержит типы и функции для формирования JSON-ответов
// HTTP-обработчиков: успех, ошибка, ошибки валидации и выбор статуса по ошибке хранилища.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/antivirus-core/internal/storage"
)

// SuccessResponse ответ на успешную команду.
type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"user updated"`
}

// ErrorResponse ответ с ошибкой. Используется и в аннотациях @Failure.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid email"`
}

// OK возвращает успешный ответ с сообщением.
func OK(msg string) SuccessResponse {
	return SuccessResponse{
		Success: true,
		Message: msg,
	}
}

// Error возвращает ответ с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Error: msg,
	}
}

// StoreStatus выбирает HTTP-статус для ошибки хранилища:
// 503, если хранилище недоступно, иначе 500.
func StoreStatus(err error) int {
	if errors.Is(err, storage.ErrConnection) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// StoreError текст ответа для ошибки хранилища.
func StoreError(err error) ErrorResponse {
	if errors.Is(err, storage.ErrConnection) {
		return Error("service temporarily unavailable")
	}
	return Error("internal server error")
}

// ValidationError формирует ответ на основе ошибок валидации.
// Каждое нарушение превращается в читаемый текст, тексты объединяются через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "account_email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "signature_hash":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be 32, 40 or 64 hex characters", err.Field()))
		case "plan":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of free, monthly, yearly, lifetime", err.Field()))
		case "min", "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "max", "lte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return ErrorResponse{
		Error: strings.Join(errsMsgs, ", "),
	}
}
