package httpdomain

// RequestContext is one HTTP exchange as the transport sees it. Body is nil,
// a JSON encodable value, or a *domain.MultipartForm.
type RequestContext struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    interface{}

	// WithCredentials sends and stores cookies (the refresh cookie) for this
	// exchange. Other exchanges never carry cookies.
	WithCredentials bool
}
