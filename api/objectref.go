package api

import (
	"net/url"
	"strings"
)

//ObjectRef is the list of path segments addressing a server resource, a database or a document
type ObjectRef []string

//String joins the segments with /
func (o ObjectRef) String() string {
	return strings.Join(o, "/")
}

//Database returns the database name, or an empty string for server level resources
func (o ObjectRef) Database() string {
	if len(o) == 0 || strings.HasPrefix(o[0], "_") {
		return ""
	}
	return o[0]
}

//IsDocument returns whether the reference targets a single document
func (o ObjectRef) IsDocument() bool {
	return len(o) == 2 && o.Database() != "" && !strings.HasPrefix(o[1], "_")
}

//IsView returns whether the reference targets a design document view
func (o ObjectRef) IsView() bool {
	return len(o) == 5 && o.Database() != "" && o[1] == "_design" && o[3] == "_view"
}

//ID returns the last segment, the document identifier for a document reference
func (o ObjectRef) ID() string {
	return o[len(o)-1]
}

//Escaped returns the path with every segment percent-encoded
func (o ObjectRef) Escaped() string {
	segments := make([]string, len(o))
	for i, s := range o {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

//URL returns the request target for this reference below base
func (o ObjectRef) URL(base string) string {
	if len(o) == 0 {
		return base
	}
	return base + "/" + o.Escaped()
}

//ParseObjectRef splits an escaped URL path into its unescaped segments
func ParseObjectRef(escapedPath string) (ObjectRef, error) {
	escapedPath = strings.TrimPrefix(escapedPath, "/")
	if len(escapedPath) == 0 {
		return ObjectRef{}, nil
	}
	items := strings.Split(escapedPath, "/")
	for i, item := range items {
		s, err := url.PathUnescape(item)
		if err != nil {
			return nil, err
		}
		items[i] = s
	}
	return ObjectRef(items), nil
}
