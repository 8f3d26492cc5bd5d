package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

var validate = validator.New()

// ValidationError 요청 필드 검증 실패 항목
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// decodeAndValidate JSON body 디코딩 후 validate 태그 검사
// 실패 시 400 응답을 쓰고 false 반환
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
			return false
		}
	}

	if err := validate.StructCtx(r.Context(), req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			respondError(w, http.StatusBadRequest, err.Error())
			return false
		}
		out := make([]ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": out,
		})
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// statusFor 도메인 에러 → HTTP 상태
// ⭐ SSOT: 에러 매핑은 여기서만
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrModelNotFound), errors.Is(err, contracts.ErrNoResult):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrUnsupportedHorizon):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case contracts.IsContractViolation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError 상태 매핑 후 에러 응답 (5xx는 내부 메시지 숨김)
func respondServiceError(w http.ResponseWriter, err error) int {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout {
		msg = "internal error"
	}
	respondError(w, status, msg)
	return status
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
