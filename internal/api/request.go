package api

// Request is a host-independent HTTP request. The Lambda adapter builds it
// from an API Gateway proxy event.
type Request struct {
	Method    string
	Path      string
	Headers   map[string]string
	Query     map[string]string
	Body      []byte
	RequestID string
}

// Response is a host-independent HTTP response.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}
