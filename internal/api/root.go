package api

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed root.html
var rootHTML string

var rootTemplate = template.Must(template.New("root").Parse(rootHTML))

type endpoint struct {
	Method      string
	Path        string
	Description string
}

func (h *Handler) endpoints() []endpoint {
	return []endpoint{
		{http.MethodGet, "/", "This page"},
		{http.MethodGet, "/customers?limit=N", fmt.Sprintf("List up to N customers (default %d, max %d)", h.cfg.DefaultLimit, h.cfg.MaxLimit)},
		{http.MethodPost, "/customers", `Create a customer from {"name", "email", "company"}`},
	}
}

func (h *Handler) rootPage() (Response, error) {
	var buf bytes.Buffer
	err := rootTemplate.Execute(&buf, struct {
		Stage     string
		TTLDays   int
		Endpoints []endpoint
	}{h.cfg.Stage, h.cfg.TTLDays, h.endpoints()})
	if err != nil {
		return Response{}, fmt.Errorf("render root page: %w", err)
	}
	return newResponse(http.StatusOK, contentTypeHTML, buf.Bytes()), nil
}
