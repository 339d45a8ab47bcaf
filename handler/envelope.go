package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/fault"
)

// Response is the uniform HTTP-shaped envelope returned by every endpoint.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

// corsHeaders returns the permissive cross-origin headers attached to every
// response, errors included. Browsers talk to these endpoints directly.
func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token",
		"Access-Control-Allow-Methods": "POST,OPTIONS",
	}
}

func jsonResponse(statusCode int, payload interface{}) Response {
	body, err := json.Marshal(payload)
	if err != nil {
		// Marshalling our own response types cannot realistically fail;
		// fall back to a bare 500 rather than recurse.
		return Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    corsHeaders(),
			Body:       `{"error":"internal server error"}`,
		}
	}
	return Response{
		StatusCode: statusCode,
		Headers:    corsHeaders(),
		Body:       string(body),
	}
}

func success(payload interface{}) Response {
	return jsonResponse(http.StatusOK, payload)
}

func preflight() Response {
	return jsonResponse(http.StatusOK, messageBody{Message: "CORS preflight successful"})
}

// failure maps the fault taxonomy to status codes: validation errors are the
// caller's problem (400), provider errors are surfaced as a bad gateway
// (502), and anything unexpected becomes a generic 500 so internals never
// leak to clients.
func failure(logger log.Logger, err error) Response {
	var validationErr *fault.ValidationError
	if errors.As(err, &validationErr) {
		logger.Warnf("Rejected request: %s", validationErr.Message)
		return jsonResponse(http.StatusBadRequest, errorBody{Error: validationErr.Message})
	}

	var providerErr *fault.ProviderError
	if errors.As(err, &providerErr) {
		logger.Errorf("Provider call failed: %s", err)
		return jsonResponse(http.StatusBadGateway, errorBody{Error: err.Error()})
	}

	logger.Errorf("Unexpected error: %s", err)
	return jsonResponse(http.StatusInternalServerError, errorBody{Error: "internal server error"})
}
