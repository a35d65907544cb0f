package couchrepo

import (
	"github.com/pkg/errors"
)

//IsNotFound returns whether the error cause is that the store has no such document or database
func IsNotFound(err error) bool {
	nfe, ok := errors.Cause(err).(NotFound)
	return ok && nfe.IsNotFound()
}

//NotFound is the interface that wraps the IsNotFound method
type NotFound interface {
	IsNotFound() bool
}

//IsConflict returns whether the error cause is that the store rejected a write because of a stale revision.
//The document must be loaded again before retrying.
func IsConflict(err error) bool {
	ce, ok := errors.Cause(err).(Conflict)
	return ok && ce.IsConflict()
}

//Conflict is the interface that wraps the IsConflict method
type Conflict interface {
	IsConflict() bool
}

//IsConfiguration returns whether the error cause is an invalid repository setup
func IsConfiguration(err error) bool {
	ce, ok := errors.Cause(err).(Configuration)
	return ok && ce.IsConfiguration()
}

//Configuration is the interface that wraps the IsConfiguration method
type Configuration interface {
	IsConfiguration() bool
}

//IsBadRequest returns whether the error cause is that the provided inputs are incorrect
func IsBadRequest(err error) bool {
	bre, ok := errors.Cause(err).(BadRequest)
	return ok && bre.IsBadRequest()
}

//BadRequest is the interface that wraps the IsBadRequest method
type BadRequest interface {
	IsBadRequest() bool
}

type badRequest string

func (err badRequest) IsBadRequest() bool {
	return true
}
func (err badRequest) Error() string {
	return string(err)
}
