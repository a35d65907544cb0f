package api

import "time"

//Record is a stored document revision. A deleted document remains as a tombstone record.
type Record struct {
	ID      string
	Rev     string
	Deleted bool
	Content Map
	Updated time.Time
}

//Document returns the content of the record with its reserved fields set
func (r Record) Document() Map {
	d := make(Map, len(r.Content)+2)
	for k, v := range r.Content {
		d[k] = v
	}
	d[IDField] = r.ID
	d[RevField] = r.Rev
	return d
}

//Store describes the interface that a datastore backing the development server should implement
type Store interface {
	Init() error

	CreateDatabase(db string) error
	DeleteDatabase(db string) error
	DatabaseExists(db string) (bool, error)
	UpdateSeq(db string) (int64, error)

	// Get returns tombstones too; a document that never existed is not found.
	Get(document ObjectRef) (Record, error)
	// GetAll returns the live documents of a database ordered by id.
	GetAll(db string) ([]Record, error)
	// Put writes rec only if the stored revision is still expectedRev ("" for a new document).
	Put(document ObjectRef, expectedRev string, rec Record) error
}
