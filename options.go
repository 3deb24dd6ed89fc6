package figmadl

import "net/http"

// RequestOption is a functional option for configuring HTTP requests.
type RequestOption func(*http.Request)

// WithHeader sets a single header in the request.
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// WithHeaders sets multiple headers in the request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(req *http.Request) {
		for key, value := range headers {
			req.Header.Set(key, value)
		}
	}
}

// WithFigmaToken sets the X-Figma-Token header carrying the bearer credential.
func WithFigmaToken(token string) RequestOption {
	return WithHeader("X-Figma-Token", token)
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) RequestOption {
	return WithHeader("User-Agent", userAgent)
}

// WithAccept sets the Accept header.
func WithAccept(accept string) RequestOption {
	return WithHeader("Accept", accept)
}

// applyOptions applies all RequestOption to the request.
func applyOptions(req *http.Request, opts []RequestOption) {
	for _, opt := range opts {
		opt(req)
	}
}
