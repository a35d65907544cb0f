package devserver

import (
	"sort"
	"sync"

	"github.com/xdbsoft/couchrepo/api"
)

//NewMemoryStore returns a Store keeping every database in memory
func NewMemoryStore() api.Store {
	return &memoryStore{}
}

type memoryDatabase struct {
	docs map[string]api.Record
	seq  int64
}

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]*memoryDatabase
}

func (s *memoryStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*memoryDatabase)
	}
	return nil
}

func (s *memoryStore) CreateDatabase(db string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.data[db]; found {
		return fileExistsError("The database could not be created, the file already exists.")
	}
	s.data[db] = &memoryDatabase{docs: make(map[string]api.Record)}
	return nil
}

func (s *memoryStore) DeleteDatabase(db string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.data[db]; !found {
		return notFoundError("Database does not exist.")
	}
	delete(s.data, db)
	return nil
}

func (s *memoryStore) DatabaseExists(db string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, found := s.data[db]
	return found, nil
}

func (s *memoryStore) UpdateSeq(db string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, found := s.data[db]
	if !found {
		return 0, notFoundError("Database does not exist.")
	}
	return d.seq, nil
}

func (s *memoryStore) Get(document api.ObjectRef) (api.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, found := s.data[document.Database()]
	if !found {
		return api.Record{}, notFoundError("Database does not exist.")
	}

	rec, found := d.docs[document.ID()]
	if !found {
		return api.Record{}, notFoundError("missing")
	}

	return rec, nil
}

func (s *memoryStore) GetAll(db string) ([]api.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, found := s.data[db]
	if !found {
		return nil, notFoundError("Database does not exist.")
	}

	var res []api.Record
	for _, rec := range d.docs {
		if !rec.Deleted {
			res = append(res, rec)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })

	return res, nil
}

func (s *memoryStore) Put(document api.ObjectRef, expectedRev string, rec api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, found := s.data[document.Database()]
	if !found {
		return notFoundError("Database does not exist.")
	}

	if current := d.docs[document.ID()]; current.Rev != expectedRev {
		return conflictError{}
	}

	d.docs[document.ID()] = rec
	d.seq++

	return nil
}
