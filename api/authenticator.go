package api

import (
	"net/http"
)

//User is the identity behind a store request
type User struct {
	ID    string
	Name  string
	Email string
}

//Authenticator describes the interface that a service authenticating an HTTP request should implement
type Authenticator interface {
	Authenticate(r *http.Request) (User, error)
}
