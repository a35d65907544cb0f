package devserver

import (
	"net/http"

	"github.com/pkg/errors"
)

//storeError is an error answered to the client as {"error": kind, "reason": reason}
type storeError interface {
	error
	Status() int
	Kind() string
}

type badRequest string

func (err badRequest) Error() string { return string(err) }
func (err badRequest) Status() int   { return http.StatusBadRequest }
func (err badRequest) Kind() string  { return "bad_request" }
func (err badRequest) IsBadRequest() bool {
	return true
}

type notFoundError string

func (err notFoundError) Error() string { return string(err) }
func (err notFoundError) Status() int   { return http.StatusNotFound }
func (err notFoundError) Kind() string  { return "not_found" }
func (err notFoundError) IsNotFound() bool {
	return true
}

type conflictError struct{}

func (err conflictError) Error() string { return "Document update conflict." }
func (err conflictError) Status() int   { return http.StatusConflict }
func (err conflictError) Kind() string  { return "conflict" }
func (err conflictError) IsConflict() bool {
	return true
}

type fileExistsError string

func (err fileExistsError) Error() string { return string(err) }
func (err fileExistsError) Status() int   { return http.StatusPreconditionFailed }
func (err fileExistsError) Kind() string  { return "file_exists" }

type notAuthorizedError string

func (err notAuthorizedError) Error() string { return string(err) }
func (err notAuthorizedError) Status() int   { return http.StatusUnauthorized }
func (err notAuthorizedError) Kind() string  { return "unauthorized" }
func (err notAuthorizedError) IsNotAuthorized() bool {
	return true
}

type forbiddenError string

func (err forbiddenError) Error() string { return string(err) }
func (err forbiddenError) Status() int   { return http.StatusForbidden }
func (err forbiddenError) Kind() string  { return "forbidden" }

type methodNotAllowed string

func (err methodNotAllowed) Error() string { return "Only " + string(err) + " allowed" }
func (err methodNotAllowed) Status() int   { return http.StatusMethodNotAllowed }
func (err methodNotAllowed) Kind() string  { return "method_not_allowed" }

//Stores report these through the behavioural interfaces, whatever their concrete type.
func isNotFound(err error) bool {
	nfe, ok := errors.Cause(err).(interface{ IsNotFound() bool })
	return ok && nfe.IsNotFound()
}

func isConflict(err error) bool {
	ce, ok := errors.Cause(err).(interface{ IsConflict() bool })
	return ok && ce.IsConflict()
}

func isNotAuthorized(err error) bool {
	nae, ok := errors.Cause(err).(interface{ IsNotAuthorized() bool })
	return ok && nae.IsNotAuthorized()
}

func toStoreError(err error) storeError {

	cause := errors.Cause(err)
	if se, ok := cause.(storeError); ok {
		return se
	}
	if isNotFound(cause) {
		return notFoundError("missing")
	}
	if isConflict(cause) {
		return conflictError{}
	}
	if isNotAuthorized(cause) {
		return notAuthorizedError("Name or password is incorrect.")
	}
	return nil
}
