package couchrepo

import (
	"context"
	"net/http"

	"github.com/coreos/go-oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2/clientcredentials"
)

//NewHTTPClient returns the HTTP client to give to transport.HTTP.
//When an issuer is configured, its token endpoint is discovered and the client
//attaches a bearer token obtained with the client credentials grant, refreshing it when it expires.
func NewHTTPClient(ctx context.Context, cfg AuthConfig) (*http.Client, error) {

	if len(cfg.Issuer) == 0 {
		return &http.Client{}, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, errors.Wrap(err, "unable to discover OpenID Connect provider")
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     provider.Endpoint().TokenURL,
		Scopes:       cfg.Scopes,
	}

	return cc.Client(ctx), nil
}
