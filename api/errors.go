package api

import (
	"fmt"
	"net/http"
)

//StoreError is a non-2xx answer of the store. Kind and Reason come from the
//JSON error body ({"error": ..., "reason": ...}); Raw keeps the body as received.
type StoreError struct {
	Method string
	URL    string
	Status int
	Kind   string
	Reason string
	Body   map[string]interface{}
	Raw    []byte
}

//Error describes the request and the answer of the store
func (err *StoreError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", err.Method, err.URL, err.Status, http.StatusText(err.Status))
	if len(err.Kind) > 0 {
		msg += ": " + err.Kind
	}
	if len(err.Reason) > 0 {
		msg += " (" + err.Reason + ")"
	}
	return msg
}

//IsNotFound reports a 404 answer
func (err *StoreError) IsNotFound() bool {
	return err.Status == http.StatusNotFound
}

//IsConflict reports a 409 answer, or the 412 a conditional request gets when the supplied revision is stale
func (err *StoreError) IsConflict() bool {
	return err.Status == http.StatusConflict || err.Status == http.StatusPreconditionFailed
}

//ConfigurationError reports an invalid repository setup, detected at construction
type ConfigurationError string

//Error returns the configuration problem
func (err ConfigurationError) Error() string {
	return "invalid configuration: " + string(err)
}

//IsConfiguration always returns true
func (err ConfigurationError) IsConfiguration() bool {
	return true
}
