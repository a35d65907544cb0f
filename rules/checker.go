package rules

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xdbsoft/gript"

	"github.com/xdbsoft/couchrepo/api"
)

type Checker struct {
	rules []Rule
}

func NewChecker(rules []Rule) Checker {
	return Checker{rules: rules}
}

func isVariable(s string) (bool, string) {

	if len(s) >= 3 {
		if s[0] == '{' && s[len(s)-1] == '}' {
			return true, s[1 : len(s)-1]
		}
	}
	return false, ""
}

func checkCondition(condition string, variables map[string]interface{}) (bool, error) {
	if len(condition) == 0 {
		return true, nil
	}
	r, err := gript.Eval(condition, variables)
	if err != nil {
		return false, errors.Wrapf(err, "unable to evaluate condition '%s'", condition)
	}
	result, ok := r.(bool)
	if !ok {
		return false, errors.New("Invalid condition: result is not boolean")
	}
	return result, nil
}

//match returns the path variables when target matches path
func match(path []string, target api.ObjectRef) (map[string]interface{}, bool) {

	if len(path) != len(target) {
		return nil, false
	}

	pathVariables := make(map[string]interface{})
	for i := range path {
		if isVar, name := isVariable(path[i]); isVar {
			pathVariables[name] = target[i]
		} else if path[i] != target[i] {
			return nil, false
		}
	}
	return pathVariables, true
}

//Check returns whether user may apply method to target. Database level targets
//are checked as the document "*" of the database. The first rule matching the
//target decides; targets matched by no rule are allowed.
func (c Checker) Check(target api.ObjectRef, user api.User, method Method, doc api.Map) (bool, error) {

	docTarget := target
	if len(docTarget) == 1 {
		docTarget = api.ObjectRef{target[0], "*"}
	}

	for _, rule := range c.rules {

		pathVariables, ok := match(strings.Split(rule.Path, "/"), docTarget)
		if !ok {
			continue
		}

		variables := map[string]interface{}{
			"path": pathVariables,
			"user": map[string]interface{}{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			},
			"doc": map[string]interface{}(doc),
		}

		for _, a := range rule.Allow {
			for _, m := range a.Methods {
				if m == method {
					return checkCondition(a.If, variables)
				}
			}
		}
		return false, nil
	}

	return true, nil
}
