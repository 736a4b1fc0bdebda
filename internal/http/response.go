package http

import (
	"time"
)

// Response is a fully-read HTTP response
type Response struct {
	StatusCode int
	// ResponseTime runs from sending the request to the end of the body.
	ResponseTime time.Duration
	body         []byte
}

// BodyString returns the response body as a string
func (r *Response) BodyString() string {
	return string(r.body)
}

// IsSuccess returns true if the response status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
