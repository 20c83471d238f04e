package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"invision-server/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code              string   `json:"code"` // UUID from PlatformError
	Error             string   `json:"error"`
	Message           string   `json:"message,omitempty"`
	MissingConnectors []string `json:"missing_connectors,omitempty"`
	ErrorInstance     error    `json:"-"`
	RequestID         string   `json:"request_id,omitempty"`
}

// HandleError handles domain errors and returns appropriate HTTP responses
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())

		errResp := ErrorResponse{
			Code:              domainErr.GetUUID(),
			Error:             message,
			Message:           message,
			MissingConnectors: missingConnectors(domainErr),
			ErrorInstance:     domainErr,
			RequestID:         domainErr.GetRequestID(),
		}

		reqCtx.AbortWithStatusJSON(statusCode, errResp)
		return
	}
	// Non-platform errors
	errResp := ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	ctx := reqCtx.Request.Context()
	err := platformerrors.NewError(ctx, platformerrors.LayerRoute, errorType, message, nil, uuid)

	statusCode := platformerrors.ErrorTypeToHTTPStatus(err.GetErrorType())

	errResp := ErrorResponse{
		Code:          err.GetUUID(),
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     err.GetRequestID(),
	}

	reqCtx.AbortWithStatusJSON(statusCode, errResp)
}

// missingConnectors walks the wrap chain for the precondition error that
// carries the missing connector list, since wrapping drops context fields.
func missingConnectors(err *platformerrors.PlatformError) []string {
	for current := err; current != nil; {
		if current.Type == platformerrors.ErrorTypePrecondition {
			if slugs := connectorSlugs(current.Context["missing_connectors"]); len(slugs) > 0 {
				return slugs
			}
		}
		var next *platformerrors.PlatformError
		if !errors.As(current.Unwrap(), &next) {
			break
		}
		current = next
	}
	return nil
}

func connectorSlugs(value any) []string {
	switch list := value.(type) {
	case []string:
		return list
	case []any:
		slugs := make([]string, 0, len(list))
		for _, entry := range list {
			if slug, ok := entry.(string); ok {
				slugs = append(slugs, slug)
			}
		}
		return slugs
	default:
		return nil
	}
}
