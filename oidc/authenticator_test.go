package oidc

import (
	"net/http/httptest"
	"testing"
)

func TestGetRawIDToken(t *testing.T) {

	testCases := []struct {
		header   string
		expected string
	}{
		{"", ""},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer  abc.def.ghi ", "abc.def.ghi"},
	}

	for _, tc := range testCases {
		r := httptest.NewRequest("GET", "/", nil)
		if len(tc.header) > 0 {
			r.Header.Set("Authorization", tc.header)
		}
		if token := getRawIDToken(r); token != tc.expected {
			t.Errorf("%q: expected %q, got %q", tc.header, tc.expected, token)
		}
	}
}

func TestAuthenticate_Anonymous(t *testing.T) {

	a := NewWithVerifier(nil)

	user, err := a.Authenticate(httptest.NewRequest("GET", "/notes/n1", nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(user.ID) != 0 {
		t.Errorf("Expected the anonymous user, got %+v", user)
	}
}
