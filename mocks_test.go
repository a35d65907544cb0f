package couchrepo

import (
	"context"
	"testing"

	"github.com/xdbsoft/couchrepo/api"
)

type mockedResponse struct {
	status int
	body   string
}

//mockedFetcher answers with the queued responses in order, then with fallback
type mockedFetcher struct {
	responses []mockedResponse
	fallback  mockedResponse
	err       error
	requests  []*api.Request
}

func newMockedFetcher(responses ...mockedResponse) *mockedFetcher {
	return &mockedFetcher{
		responses: responses,
		fallback:  mockedResponse{200, `{}`},
	}
}

func (f *mockedFetcher) Fetch(ctx context.Context, req *api.Request) (*api.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}

	r := f.fallback
	if len(f.responses) > 0 {
		r = f.responses[0]
		f.responses = f.responses[1:]
	}

	return &api.Response{Status: r.status, Body: []byte(r.body)}, nil
}

type expectedRequest struct {
	method  string
	url     string
	headers map[string]string
}

func (f *mockedFetcher) check(t *testing.T, expected ...expectedRequest) {
	t.Helper()

	if len(f.requests) != len(expected) {
		t.Fatalf("Expected %d requests, got %d", len(expected), len(f.requests))
	}

	for i, e := range expected {
		req := f.requests[i]
		if req.Method != e.method {
			t.Errorf("Request %d: unexpected method, expected %s, got %s", i, e.method, req.Method)
		}
		if req.URL != e.url {
			t.Errorf("Request %d: unexpected URL, expected %s, got %s", i, e.url, req.URL)
		}
		for k, v := range e.headers {
			if got := req.Header.Get(k); got != v {
				t.Errorf("Request %d: unexpected header %s, expected '%s', got '%s'", i, k, v, got)
			}
		}
	}
}

var acceptJSON = map[string]string{"Accept": "application/json"}

func newTestRepository(t *testing.T, f api.Fetcher) *Repository {
	t.Helper()

	r, err := New(Config{URL: "http://localhost:5984", Database: "testing"}, f)
	if err != nil {
		t.Fatal(err)
	}
	return r
}
