//Package oidc authenticates store requests carrying an OpenID Connect ID token as bearer.
package oidc

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc"

	"github.com/xdbsoft/couchrepo/api"
)

func New(openIDConnectIssuer string) (api.Authenticator, error) {

	provider, err := oidc.NewProvider(context.Background(), openIDConnectIssuer)
	if err != nil {
		return nil, err
	}

	config := oidc.Config{
		SkipClientIDCheck: true,
	}

	return NewWithVerifier(provider.Verifier(&config)), nil
}

//NewWithVerifier returns an authenticator checking tokens with v
func NewWithVerifier(v *oidc.IDTokenVerifier) api.Authenticator {
	return &authenticator{Verifier: v}
}

type authenticator struct {
	Verifier *oidc.IDTokenVerifier
}

//getRawIDToken returns the bearer token of the Authorization header, if any
func getRawIDToken(r *http.Request) string {

	bearerString := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(bearerString) < len(prefix) || !strings.EqualFold(bearerString[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(bearerString[len(prefix):])
}

//Authenticate returns the anonymous user when no token is given
func (a *authenticator) Authenticate(r *http.Request) (api.User, error) {

	rawIDToken := getRawIDToken(r)
	if len(rawIDToken) == 0 {
		return api.User{}, nil
	}

	idToken, err := a.Verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		log.Println(err)
		return api.User{}, notAuthorizedError{}
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return api.User{}, err
	}

	return api.User{
		ID:    idToken.Subject,
		Name:  claims.Name,
		Email: claims.Email,
	}, nil
}

type notAuthorizedError struct {
}

func (err notAuthorizedError) Error() string {
	return "Invalid credential"
}

func (err notAuthorizedError) IsNotAuthorized() bool {
	return true
}
