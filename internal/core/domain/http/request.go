package httpdomain

// RequestContext is one request relative to a BackendEndpoint. Body is held
// as bytes so a retried attempt can resend it.
type RequestContext struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    []byte
}

// Response is a fully read response
type Response struct {
	Status  int
	Headers map[string][]string
	Body    []byte
}

// OK reports a 2xx status
func (r Response) OK() bool { return r.Status >= 200 && r.Status < 300 }
