package rules

import (
	"testing"

	"github.com/xdbsoft/couchrepo/api"
)

func TestCheck(t *testing.T) {

	c := NewChecker([]Rule{
		{
			Path: "notes/{id}",
			Allow: []Allow{
				{Methods: []Method{READ}},
				{Methods: []Method{WRITE}, If: `user.id == "alice"`},
				{Methods: []Method{DELETE}, If: `path.id != "secret"`},
			},
		},
		{
			Path:  "archive/*",
			Allow: []Allow{{Methods: []Method{READ}}},
		},
	})

	alice := api.User{ID: "alice"}
	bob := api.User{ID: "bob"}

	testCases := []struct {
		name     string
		target   api.ObjectRef
		user     api.User
		method   Method
		expected bool
	}{
		{"read any note", api.ObjectRef{"notes", "n1"}, bob, READ, true},
		{"write as alice", api.ObjectRef{"notes", "n1"}, alice, WRITE, true},
		{"write as bob", api.ObjectRef{"notes", "n1"}, bob, WRITE, false},
		{"delete a note", api.ObjectRef{"notes", "n1"}, bob, DELETE, true},
		{"delete the secret", api.ObjectRef{"notes", "secret"}, bob, DELETE, false},
		{"read archive", api.ObjectRef{"archive"}, bob, READ, true},
		{"write archive", api.ObjectRef{"archive"}, alice, WRITE, false},
		{"no matching rule", api.ObjectRef{"other", "doc"}, bob, DELETE, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := c.Check(tc.target, tc.user, tc.method, nil)
			if err != nil {
				t.Fatal(err)
			}
			if ok != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, ok)
			}
		})
	}
}

func TestCheck_DocumentCondition(t *testing.T) {

	c := NewChecker([]Rule{
		{
			Path:  "notes/{id}",
			Allow: []Allow{{Methods: []Method{WRITE}, If: `doc.owner == user.id`}},
		},
	})

	target := api.ObjectRef{"notes", "n1"}
	user := api.User{ID: "alice"}

	if ok, err := c.Check(target, user, WRITE, api.Map{"owner": "alice"}); err != nil || !ok {
		t.Errorf("Expected owner write to be allowed, got %v %v", ok, err)
	}
	if ok, err := c.Check(target, user, WRITE, api.Map{"owner": "bob"}); err != nil || ok {
		t.Errorf("Expected foreign write to be refused, got %v %v", ok, err)
	}
}

func TestCheck_InvalidCondition(t *testing.T) {

	c := NewChecker([]Rule{
		{
			Path:  "notes/{id}",
			Allow: []Allow{{Methods: []Method{READ}, If: `path.id`}},
		},
	})

	if _, err := c.Check(api.ObjectRef{"notes", "n1"}, api.User{}, READ, nil); err == nil {
		t.Error("Expected an error for a non boolean condition")
	}
}

func TestIsVariable(t *testing.T) {

	if ok, name := isVariable("{id}"); !ok || name != "id" {
		t.Errorf("Unexpected result %v %v", ok, name)
	}
	for _, s := range []string{"id", "{}", "{id"} {
		if ok, _ := isVariable(s); ok {
			t.Errorf("%s should not be a variable", s)
		}
	}
}
