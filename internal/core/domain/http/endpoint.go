package httpdomain

// BackendEndpoint describes one HTTP backend: a git provider API, its raw
// content host, or the review-job API.
type BackendEndpoint struct {
	BaseURL   string
	UserAgent string
}
