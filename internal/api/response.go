package api

import (
	"encoding/json"
	"net/http"

	"github.com/jpanderson91/aws-delivery-demo-app/internal/errs"
)

const (
	contentTypeJSON = "application/json"
	contentTypeHTML = "text/html; charset=utf-8"
)

// CORS headers attached to every response, errors included.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key",
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// newResponse is the single place responses are assembled. Content-Type is
// only set when there is a body.
func newResponse(status int, contentType string, body []byte) Response {
	headers := make(map[string]string, len(corsHeaders)+1)
	for k, v := range corsHeaders {
		headers[k] = v
	}
	if len(body) > 0 {
		headers["Content-Type"] = contentType
	}
	return Response{StatusCode: status, Headers: headers, Body: body}
}

func jsonResponse(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResponse(errs.Internal(err))
	}
	return newResponse(status, contentTypeJSON, body)
}

func errorResponse(e *errs.Error) Response {
	body, err := json.Marshal(ErrorBody{Error: string(e.Kind), Message: e.Message, Field: e.Field})
	if err != nil {
		body = []byte(`{"error":"InternalError","message":"Internal Server Error"}`)
	}
	return newResponse(e.Status, contentTypeJSON, body)
}

func preflight() Response {
	return newResponse(http.StatusOK, "", nil)
}
