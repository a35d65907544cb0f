package transport

import (
	"bytes"
	"context"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/xdbsoft/couchrepo/api"
)

type recordingFetcher struct {
	status   int
	body     string
	err      error
	requests []*api.Request
}

func (f *recordingFetcher) Fetch(ctx context.Context, req *api.Request) (*api.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &api.Response{Status: f.status, Body: []byte(f.body)}, nil
}

func checkHeaders(t *testing.T, req *api.Request, expected map[string]string) {
	t.Helper()
	for k, v := range expected {
		if got := req.Header.Get(k); got != v {
			t.Errorf("Header %s: expected '%s', got '%s'", k, v, got)
		}
	}
}

func TestAdapterHeaders(t *testing.T) {

	f := &recordingFetcher{status: 200, body: `{}`}
	a := Adapter{Fetcher: f, CSRFHeader: "X-CSRF-Token", CSRFToken: "secret"}
	ctx := context.Background()

	if _, err := a.Get(ctx, "http://localhost:5984/testing"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Put(ctx, "http://localhost:5984/testing/doc", []byte(`{"_id":"doc"}`), "1-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Put(ctx, "http://localhost:5984/testing/doc", []byte(`{"_id":"doc"}`), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Delete(ctx, "http://localhost:5984/testing/doc", "2-b"); err != nil {
		t.Fatal(err)
	}

	if len(f.requests) != 4 {
		t.Fatalf("Expected 4 requests, got %d", len(f.requests))
	}

	get := f.requests[0]
	if get.Method != "GET" || get.Body != nil {
		t.Errorf("Unexpected GET request %+v", get)
	}
	checkHeaders(t, get, map[string]string{"Accept": "application/json", "X-CSRF-Token": "secret", "Content-Type": "", "If-Match": ""})

	put := f.requests[1]
	if put.Method != "PUT" || string(put.Body) != `{"_id":"doc"}` {
		t.Errorf("Unexpected PUT request %+v", put)
	}
	checkHeaders(t, put, map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json; charset=UTF-8",
		"If-Match":     "1-a",
		"X-CSRF-Token": "secret",
	})
	checkHeaders(t, f.requests[2], map[string]string{"If-Match": ""})

	del := f.requests[3]
	if del.Method != "DELETE" || del.URL != "http://localhost:5984/testing/doc" {
		t.Errorf("Unexpected DELETE request %+v", del)
	}
	checkHeaders(t, del, map[string]string{"If-Match": "2-b", "X-CSRF-Token": "secret"})
}

func TestAdapterCSRFNeedsHeaderAndToken(t *testing.T) {

	f := &recordingFetcher{status: 200, body: `{}`}
	a := Adapter{Fetcher: f, CSRFHeader: "X-CSRF-Token"}

	if _, err := a.Get(context.Background(), "http://localhost:5984"); err != nil {
		t.Fatal(err)
	}
	if _, found := f.requests[0].Header["X-Csrf-Token"]; found {
		t.Errorf("CSRF header must not be sent without token")
	}
}

func TestAdapterClassification(t *testing.T) {

	cases := []struct {
		status     int
		body       string
		notFound   bool
		conflict   bool
		kind       string
		reason     string
		parsedBody bool
	}{
		{404, `{"error":"not_found","reason":"missing"}`, true, false, "not_found", "missing", true},
		{409, `{"error":"conflict","reason":"Document update conflict."}`, false, true, "conflict", "Document update conflict.", true},
		{412, `{"error":"precondition_failed"}`, false, true, "precondition_failed", "", true},
		{400, `{"ok":false,"status":400}`, false, false, "", "", true},
		{500, `<html>oops</html>`, false, false, "", "", false},
	}

	for i, c := range cases {
		f := &recordingFetcher{status: c.status, body: c.body}
		_, err := Adapter{Fetcher: f}.Get(context.Background(), "http://localhost:5984/testing/x")
		if err == nil {
			t.Errorf("Case %d: expected an error", i)
			continue
		}

		se, ok := errors.Cause(err).(*api.StoreError)
		if !ok {
			t.Errorf("Case %d: expected a StoreError, got %T", i, err)
			continue
		}
		if se.Status != c.status || se.IsNotFound() != c.notFound || se.IsConflict() != c.conflict {
			t.Errorf("Case %d: unexpected classification %+v", i, se)
		}
		if se.Kind != c.kind || se.Reason != c.reason {
			t.Errorf("Case %d: unexpected error body %q %q", i, se.Kind, se.Reason)
		}
		if (se.Body != nil) != c.parsedBody || string(se.Raw) != c.body {
			t.Errorf("Case %d: unexpected body %v / %s", i, se.Body, se.Raw)
		}
	}
}

func TestAdapterSuccessRange(t *testing.T) {

	for _, status := range []int{200, 201, 202, 299} {
		f := &recordingFetcher{status: status, body: `{"ok":true}`}
		resp, err := Adapter{Fetcher: f}.Get(context.Background(), "http://localhost:5984")
		if err != nil {
			t.Errorf("Status %d: unexpected error %v", status, err)
			continue
		}
		if resp.Status != status {
			t.Errorf("Status %d: unexpected response status %d", status, resp.Status)
		}
	}
}

func TestAdapterFetchFailure(t *testing.T) {

	cause := errors.New("connection refused")
	f := &recordingFetcher{err: cause}
	_, err := Adapter{Fetcher: f}.Get(context.Background(), "http://localhost:5984")
	if errors.Cause(err) != cause {
		t.Errorf("Unexpected error %v", err)
	}
	if len(f.requests) != 1 {
		t.Errorf("The adapter must not retry, got %d requests", len(f.requests))
	}
}

func TestHTTPFetcher(t *testing.T) {

	var gotMethod, gotAccept, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAccept = r.Header.Get("Accept")
		b, _ := ioutil.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"conflict"}`))
	}))
	defer srv.Close()

	h := make(http.Header)
	h.Set("Accept", "application/json")
	resp, err := HTTP(srv.Client()).Fetch(context.Background(), &api.Request{
		Method: "PUT",
		URL:    srv.URL + "/testing/doc",
		Header: h,
		Body:   []byte(`{"k":"v"}`),
	})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Status != http.StatusConflict || string(resp.Body) != `{"error":"conflict"}` {
		t.Errorf("Unexpected response %d %s", resp.Status, resp.Body)
	}
	if gotMethod != "PUT" || gotAccept != "application/json" || gotBody != `{"k":"v"}` {
		t.Errorf("Unexpected request %s %s %s", gotMethod, gotAccept, gotBody)
	}
}

func TestAdapterLogger(t *testing.T) {

	var buf bytes.Buffer
	f := &recordingFetcher{status: 404, body: `{"error":"not_found","reason":"missing"}`}
	a := Adapter{Fetcher: f, Logger: log.New(&buf, "", 0)}

	a.Get(context.Background(), "http://localhost:5984/db/doc")
	f.err = errors.New("connection refused")
	a.Delete(context.Background(), "http://localhost:5984/db/doc", "1-a")

	expected := []string{
		"GET http://localhost:5984/db/doc: 404",
		"DELETE http://localhost:5984/db/doc: connection refused",
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(expected) {
		t.Fatalf("Unexpected log %q", buf.String())
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("Expected log line '%s', got '%s'", expected[i], lines[i])
		}
	}
}

func TestAdapterWithoutLogger(t *testing.T) {

	a := Adapter{Fetcher: &recordingFetcher{status: 200, body: `{}`}}
	if _, err := a.Get(context.Background(), "http://localhost:5984/db"); err != nil {
		t.Errorf("Unexpected error %v", err)
	}
}
