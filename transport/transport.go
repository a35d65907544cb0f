package transport

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/pkg/errors"

	"github.com/xdbsoft/couchrepo/api"
)

//Header values sent to the store
const (
	AcceptJSON      = "application/json"
	ContentTypeJSON = "application/json; charset=UTF-8"
)

//Adapter sends requests to the store through a Fetcher, attaching the standard
//headers, and turns every non-2xx answer into an *api.StoreError.
//It never retries and keeps no state between calls.
type Adapter struct {
	Fetcher    api.Fetcher
	CSRFHeader string
	CSRFToken  string
	Logger     *log.Logger
}

//Get sends a GET request accepting JSON
func (a Adapter) Get(ctx context.Context, url string) (*api.Response, error) {
	h := make(http.Header)
	h.Set("Accept", AcceptJSON)
	return a.Do(ctx, &api.Request{Method: http.MethodGet, URL: url, Header: h})
}

//Put writes body; rev, when known, is sent as If-Match so that the store rejects a stale write
func (a Adapter) Put(ctx context.Context, url string, body []byte, rev string) (*api.Response, error) {
	h := make(http.Header)
	h.Set("Accept", AcceptJSON)
	h.Set("Content-Type", ContentTypeJSON)
	if len(rev) > 0 {
		h.Set("If-Match", rev)
	}
	return a.Do(ctx, &api.Request{Method: http.MethodPut, URL: url, Header: h, Body: body})
}

//Delete removes the resource at url on condition that rev is its current revision
func (a Adapter) Delete(ctx context.Context, url string, rev string) (*api.Response, error) {
	h := make(http.Header)
	h.Set("Accept", AcceptJSON)
	if len(rev) > 0 {
		h.Set("If-Match", rev)
	}
	return a.Do(ctx, &api.Request{Method: http.MethodDelete, URL: url, Header: h})
}

//Do sends req with the CSRF header attached and checks the status of the response
func (a Adapter) Do(ctx context.Context, req *api.Request) (*api.Response, error) {

	if a.Fetcher == nil {
		return nil, api.ConfigurationError("no fetcher")
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	if len(a.CSRFHeader) > 0 && len(a.CSRFToken) > 0 {
		req.Header.Set(a.CSRFHeader, a.CSRFToken)
	}

	resp, err := a.Fetcher.Fetch(ctx, req)
	if err != nil {
		a.logf("%s %s: %v", req.Method, req.URL, err)
		return nil, errors.Wrap(err, "store unreachable")
	}
	a.logf("%s %s: %d", req.Method, req.URL, resp.Status)

	if err := CheckStatus(req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (a Adapter) logf(format string, v ...interface{}) {
	if a.Logger != nil {
		a.Logger.Printf(format, v...)
	}
}

//CheckStatus returns nil for a status in [200,300) and an *api.StoreError otherwise,
//carrying the JSON error body when it can be decoded and the raw body in any case.
func CheckStatus(req *api.Request, resp *api.Response) error {

	if resp.Status >= 200 && resp.Status < 300 {
		return nil
	}

	err := &api.StoreError{
		Method: req.Method,
		URL:    req.URL,
		Status: resp.Status,
		Raw:    resp.Body,
	}

	var body map[string]interface{}
	if json.Unmarshal(resp.Body, &body) == nil {
		err.Body = body
		err.Kind, _ = body["error"].(string)
		err.Reason, _ = body["reason"].(string)
	}
	return err
}
