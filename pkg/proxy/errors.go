package proxy

import (
	"context"
	"errors"
	"fmt"

	"bizbridge/gateway/pkg/auth"
	"bizbridge/gateway/pkg/orchestrator"
	"bizbridge/gateway/pkg/proxy/types"
	"bizbridge/gateway/pkg/upstream"
)

// HandleError converts gateway errors to OpenAI-compatible error responses.
// It maps request, orchestration and upstream errors to appropriate HTTP
// status codes and error formats.
//
// Example usage:
//
//	if err != nil {
//	    errResp := HandleError(err)
//	    WriteErrorResponse(w, errResp)
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var modelErr *orchestrator.ModelNotFoundError
	if errors.As(err, &modelErr) {
		return types.NewNotFoundError(modelErr.Error(), "model", types.CodeModelNotFound)
	}

	// Session exhaustion wraps the last create error, which may itself wrap
	// a token failure, so it is matched first.
	if errors.Is(err, orchestrator.ErrSessionUnavailable) {
		return types.NewServiceUnavailableError(
			"Failed to create an upstream session after retries",
			types.CodeSessionUnavailable,
		)
	}

	var uploadErr *upstream.FileUploadError
	if errors.As(err, &uploadErr) {
		return types.NewBadGatewayError(
			fmt.Sprintf("Failed to attach image: %s", uploadErr.Message),
			types.CodeUploadFailed,
		)
	}

	var streamErr *upstream.StreamError
	if errors.As(err, &streamErr) {
		return types.NewBadGatewayError(
			fmt.Sprintf("Upstream answer failed: %s", streamErr.Message),
			types.CodeUpstreamError,
		)
	}

	var tokenErr *auth.TokenRefreshError
	if errors.As(err, &tokenErr) {
		return types.NewBadGatewayError(
			fmt.Sprintf("Upstream authentication failed for account %s", tokenErr.Account),
			types.CodeTokenRefreshFailed,
		)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewGatewayTimeoutError("Upstream request timed out")
	}

	return types.NewServerError("An internal error occurred. Please try again later.")
}
