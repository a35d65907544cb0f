package api

import (
	"context"
	"encoding/json"
	"net/http"
)

//Request is a single HTTP exchange to send to the store
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

//Response is the raw answer of the store
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

//JSON decodes the response body into v
func (r *Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

//Fetcher describes the capability of sending a request and returning the status and body
//of the response, whatever the status is.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}
