package transport

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"

	"github.com/xdbsoft/couchrepo/api"
)

//HTTP returns a Fetcher sending requests with client.
//A nil client is replaced by a new client with no timeout.
func HTTP(client *http.Client) api.Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &httpFetcher{client: client}
}

type httpFetcher struct {
	client *http.Client
}

func (f *httpFetcher) Fetch(ctx context.Context, req *api.Request) (*api.Response, error) {

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to build request")
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpRequest.Header.Add(k, v)
		}
	}

	httpResponse, err := f.client.Do(httpRequest)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s failed", req.Method, req.URL)
	}
	defer httpResponse.Body.Close()

	b, err := ioutil.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read response body")
	}

	return &api.Response{
		Status: httpResponse.StatusCode,
		Header: httpResponse.Header,
		Body:   b,
	}, nil
}
