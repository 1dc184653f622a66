package rest

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/auth"
	"github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code, message string, httpStatus int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func NewAPIErrorWithDetails(code, message string, httpStatus int, details map[string]interface{}) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		HTTPStatus: httpStatus,
	}
}

var (
	ErrBadRequest          = NewAPIError("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrUnauthorized        = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrForbidden           = NewAPIError("FORBIDDEN", "Access denied", http.StatusForbidden)
	ErrNotFound            = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrConflict            = NewAPIError("CONFLICT", "Resource conflict", http.StatusConflict)
	ErrValidationFailed    = NewAPIError("VALIDATION_FAILED", "Validation failed", http.StatusUnprocessableEntity)
	ErrInternalServer      = NewAPIError("INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrTooManyRequests     = NewAPIError("RATE_LIMIT_EXCEEDED", "Too many requests", http.StatusTooManyRequests)
	ErrInvalidJSON         = NewAPIError("INVALID_JSON", "Invalid JSON in request body", http.StatusBadRequest)
	ErrMissingParameter    = NewAPIError("MISSING_PARAMETER", "Required parameter is missing", http.StatusBadRequest)
	ErrInvalidParameter    = NewAPIError("INVALID_PARAMETER", "Invalid parameter value", http.StatusBadRequest)
	ErrInvalidID           = NewAPIError("INVALID_ID", "Invalid ID format", http.StatusBadRequest)
	ErrTokenExpired        = NewAPIError("TOKEN_EXPIRED", "Token has expired", http.StatusUnauthorized)
	ErrInvalidToken        = NewAPIError("INVALID_TOKEN", "Invalid token", http.StatusUnauthorized)
	ErrInsufficientBalance = NewAPIError("INSUFFICIENT_BALANCE", "Insufficient account balance", http.StatusPaymentRequired)
)

// TranslateError maps a domain error to the HTTP status/code table in
// spec §7: NotFound -> 404, Conflict -> 409, Validation -> 422,
// InsufficientBalance -> 402, upstream scraper taxonomy -> 5xx.
func TranslateError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	// NotFound (spec §7)
	case errors.Is(err, models.ErrPromptNotFound):
		return NewAPIError("PROMPT_NOT_FOUND", "Prompt not found", http.StatusNotFound)
	case errors.Is(err, models.ErrUserNotFound):
		return NewAPIError("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	case errors.Is(err, models.ErrQueueEntryNotFound):
		return NewAPIError("QUEUE_ENTRY_NOT_FOUND", "Queue entry not found", http.StatusNotFound)
	case errors.Is(err, models.ErrEvaluationNotFound):
		return NewAPIError("EVALUATION_NOT_FOUND", "Evaluation not found", http.StatusNotFound)
	case errors.Is(err, models.ErrAssistantNotFound):
		return NewAPIError("ASSISTANT_NOT_FOUND", "Assistant not found", http.StatusNotFound)
	case errors.Is(err, models.ErrPlanNotFound):
		return NewAPIError("PLAN_NOT_FOUND", "Assistant plan not found", http.StatusNotFound)
	case errors.Is(err, models.ErrGroupNotFound):
		return NewAPIError("GROUP_NOT_FOUND", "Prompt group not found", http.StatusNotFound)
	case errors.Is(err, models.ErrReportNotFound):
		return NewAPIError("REPORT_NOT_FOUND", "Report not found", http.StatusNotFound)
	case errors.Is(err, models.ErrBatchNotFound):
		return NewAPIError("BATCH_NOT_FOUND", "Batch not found", http.StatusNotFound)

	// Conflict (spec §7)
	case errors.Is(err, models.ErrEvaluationAlreadyCompleted):
		return NewAPIError("EVALUATION_ALREADY_COMPLETED", "Evaluation already completed", http.StatusConflict)
	case errors.Is(err, models.ErrQueueEntryTerminal):
		return NewAPIError("QUEUE_ENTRY_TERMINAL", "Queue entry already in a terminal state", http.StatusConflict)
	case errors.Is(err, models.ErrDuplicateConsumption):
		return NewAPIError("DUPLICATE_CONSUMPTION", "Evaluation already consumed by user", http.StatusConflict)

	// Validation (spec §7): unknown plan, bad selection, empty prompt list
	case errors.Is(err, models.ErrUnknownAssistantPlan):
		return NewAPIError("UNKNOWN_ASSISTANT_PLAN", "Unknown assistant/plan combination", http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrInvalidSelection):
		return NewAPIError("INVALID_SELECTION", "Selection references an evaluation not available for the prompt", http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrDuplicateSelection):
		return NewAPIError("DUPLICATE_SELECTION", "Duplicate prompt in selection", http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrSelectionOutsideGroup):
		return NewAPIError("SELECTION_OUTSIDE_GROUP", "Prompt does not belong to group", http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrEmptyPromptList):
		return NewAPIError("EMPTY_PROMPT_LIST", "Prompt id list must not be empty", http.StatusUnprocessableEntity)

	// Billing (spec §7: charge() never emits this; direct callers must catch)
	case errors.Is(err, models.ErrInsufficientBalance):
		return ErrInsufficientBalance

	// External batch correlator taxonomy (spec §4.4/§7): map to 5xx at the boundary
	case errors.Is(err, models.ErrUpstreamAuth):
		return NewAPIError("UPSTREAM_AUTH_FAILED", "Upstream authentication failed", http.StatusBadGateway)
	case errors.Is(err, models.ErrRateLimited):
		return NewAPIError("UPSTREAM_RATE_LIMITED", "Upstream rate limited the request", http.StatusBadGateway)
	case errors.Is(err, models.ErrGatewayTimeout):
		return NewAPIError("UPSTREAM_TIMEOUT", "Upstream request timed out", http.StatusGatewayTimeout)
	case errors.Is(err, models.ErrUpstreamUnreach):
		return NewAPIError("UPSTREAM_UNREACHABLE", "Upstream unreachable", http.StatusBadGateway)
	case errors.Is(err, models.ErrStaleClaim):
		return NewAPIError("STALE_CLAIM", "Queue entry claim is stale", http.StatusConflict)
	case errors.Is(err, models.ErrPromptTextMissing):
		return NewAPIError("PROMPT_TEXT_MISSING", "No matching prompt text in batch", http.StatusUnprocessableEntity)

	// Account/auth errors
	case errors.Is(err, auth.ErrEmailAlreadyTaken):
		return NewAPIError("EMAIL_ALREADY_TAKEN", "Email is already taken", http.StatusConflict)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return NewAPIError("INVALID_CREDENTIALS", "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrAccountInactive):
		return NewAPIError("ACCOUNT_INACTIVE", "Account is inactive", http.StatusForbidden)
	case errors.Is(err, auth.ErrInvalidVerifyToken):
		return NewAPIError("INVALID_VERIFY_TOKEN", "Invalid or expired verification token", http.StatusUnprocessableEntity)
	case errors.Is(err, auth.ErrInvalidToken):
		return ErrInvalidToken
	case errors.Is(err, auth.ErrTokenExpired):
		return ErrTokenExpired

	// Database-level not found (when a repository doesn't wrap sql.ErrNoRows)
	case errors.Is(err, sql.ErrNoRows):
		return NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	}

	// Typed error structs carrying context (spec §2 ambient error handling).
	var insufficientErr *models.InsufficientBalanceError
	if errors.As(err, &insufficientErr) {
		return NewAPIErrorWithDetails("INSUFFICIENT_BALANCE", "Insufficient account balance", http.StatusPaymentRequired, map[string]interface{}{
			"required":  insufficientErr.Required,
			"available": insufficientErr.Available,
		})
	}

	var duplicateErr *models.DuplicateConsumptionError
	if errors.As(err, &duplicateErr) {
		return NewAPIError("DUPLICATE_CONSUMPTION", "Evaluation already consumed by user", http.StatusConflict)
	}

	var providerErr *models.BatchProviderError
	if errors.As(err, &providerErr) {
		return TranslateError(providerErr.Kind)
	}

	var passwordErr *auth.PasswordError
	if errors.As(err, &passwordErr) {
		return NewAPIError("INVALID_PASSWORD", passwordErr.Error(), http.StatusUnprocessableEntity)
	}

	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return NewAPIErrorWithDetails("VALIDATION_FAILED", validationErr.Message, http.StatusUnprocessableEntity, map[string]interface{}{
			"field": validationErr.Field,
		})
	}

	var validationErrs models.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(map[string]interface{})
		for _, ve := range validationErrs {
			details[ve.Field] = ve.Message
		}
		if len(validationErrs) > 0 {
			return NewAPIErrorWithDetails("VALIDATION_FAILED", validationErrs[0].Message, http.StatusUnprocessableEntity, details)
		}
		return NewAPIError("VALIDATION_FAILED", "validation failed", http.StatusUnprocessableEntity)
	}

	// Fallback on error-message patterns for anything a repository surfaced
	// without a sentinel (e.g. a bare sql.ErrNoRows wrapped with fmt.Errorf).
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "no rows") || strings.Contains(errMsg, "not found") {
		return NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	}

	return NewAPIError("INTERNAL_ERROR", "An unexpected error occurred", http.StatusInternalServerError)
}
