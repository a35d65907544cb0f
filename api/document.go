package api

import (
	"encoding/json"

	iradix "github.com/hashicorp/go-immutable-radix"
)

//Reserved document fields
const (
	IDField  = "_id"
	RevField = "_rev"
)

//Document is the field access capability shared by every document representation.
//Set and Delete return the resulting document: mutable representations return
//the receiver, persistent ones a new version.
type Document interface {
	Get(field string) (interface{}, bool)
	Set(field string, value interface{}) Document
	Delete(field string) Document
	Clone() Document
	Fields() map[string]interface{}
}

//StringField returns the value of field if it is a non empty string
func StringField(d Document, field string) string {
	if d == nil {
		return ""
	}
	v, ok := d.Get(field)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

//Map is a plain, mutable document
type Map map[string]interface{}

//Get returns the value of field and whether it is present
func (m Map) Get(field string) (interface{}, bool) {
	v, ok := m[field]
	return v, ok
}

//Set writes field in place. A nil map is replaced by a new one.
func (m Map) Set(field string, value interface{}) Document {
	if m == nil {
		m = make(Map)
	}
	m[field] = value
	return m
}

//Delete removes field in place
func (m Map) Delete(field string) Document {
	delete(m, field)
	return m
}

//Clone returns a shallow copy of the map
func (m Map) Clone() Document {
	c := make(Map, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

//Fields returns the map itself
func (m Map) Fields() map[string]interface{} {
	return m
}

//Tree is a persistent document: Set and Delete never modify the receiver.
type Tree struct {
	t *iradix.Tree
}

//NewTree builds a persistent document holding the given fields
func NewTree(fields map[string]interface{}) Tree {
	txn := iradix.New().Txn()
	for k, v := range fields {
		txn.Insert([]byte(k), v)
	}
	return Tree{t: txn.Commit()}
}

func (d Tree) root() *iradix.Tree {
	if d.t == nil {
		return iradix.New()
	}
	return d.t
}

//Get returns the value of field and whether it is present
func (d Tree) Get(field string) (interface{}, bool) {
	return d.root().Get([]byte(field))
}

//Set returns a new version holding field
func (d Tree) Set(field string, value interface{}) Document {
	t, _, _ := d.root().Insert([]byte(field), value)
	return Tree{t: t}
}

//Delete returns a new version without field
func (d Tree) Delete(field string) Document {
	t, _, _ := d.root().Delete([]byte(field))
	return Tree{t: t}
}

//Clone returns the receiver, which is never modified
func (d Tree) Clone() Document {
	return d
}

//Len returns the number of fields
func (d Tree) Len() int {
	return d.root().Len()
}

//Fields returns a copy of the fields as a map
func (d Tree) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, d.Len())
	d.root().Root().Walk(func(k []byte, v interface{}) bool {
		fields[string(k)] = v
		return false
	})
	return fields
}

//MarshalJSON encodes the fields as a JSON object
func (d Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Fields())
}

//UnmarshalJSON replaces the document with the fields of a JSON object
func (d *Tree) UnmarshalJSON(b []byte) error {
	fields := make(map[string]interface{})
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*d = NewTree(fields)
	return nil
}

//Identity is the identifier/revision pair resolved before a write
type Identity struct {
	ID  string
	Rev string
}

//RevInfo is the identifier and fresh revision reported by the store after a write
type RevInfo struct {
	ID  string `json:"_id"`
	Rev string `json:"_rev"`
}
