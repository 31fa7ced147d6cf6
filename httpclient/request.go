package httpclient

// Request describes an outbound HTTP request.
type Request struct {
	Method string
	// Path is appended to BaseURL unless it is an absolute http(s) URL.
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body is sent as is; a nil body sends no payload.
	Body []byte
	// Auth overrides the adapter-level auth for this request.
	Auth *AuthConfig
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	// Headers holds the first value of each response header, canonical keys.
	Headers map[string]string
	Body    []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
