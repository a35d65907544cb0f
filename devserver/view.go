package devserver

import (
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/xdbsoft/couchrepo/api"
)

type viewParams struct {
	key, startKey, endKey    interface{}
	hasKey, hasStart, hasEnd bool
	limit, skip              int
	descending, includeDocs  bool
}

//decodeKey reads a JSON encoded key, falling back to the raw string
func decodeKey(s string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func parseBool(s string) (bool, error) {
	if len(s) == 0 {
		return false, nil
	}
	return strconv.ParseBool(s)
}

func parseViewParams(q url.Values) (viewParams, error) {

	p := viewParams{limit: -1}

	if v, ok := q["key"]; ok {
		p.key, p.hasKey = decodeKey(v[0]), true
	}
	for _, name := range []string{"startkey", "start_key"} {
		if v, ok := q[name]; ok {
			p.startKey, p.hasStart = decodeKey(v[0]), true
		}
	}
	for _, name := range []string{"endkey", "end_key"} {
		if v, ok := q[name]; ok {
			p.endKey, p.hasEnd = decodeKey(v[0]), true
		}
	}

	var err error
	if s := q.Get("limit"); len(s) > 0 {
		if p.limit, err = strconv.Atoi(s); err != nil || p.limit < 0 {
			return p, badRequest("Invalid value for integer: \"" + s + "\"")
		}
	}
	if s := q.Get("skip"); len(s) > 0 {
		if p.skip, err = strconv.Atoi(s); err != nil || p.skip < 0 {
			return p, badRequest("Invalid value for integer: \"" + s + "\"")
		}
	}
	if p.descending, err = parseBool(q.Get("descending")); err != nil {
		return p, badRequest("Invalid boolean parameter: \"" + q.Get("descending") + "\"")
	}
	if p.includeDocs, err = parseBool(q.Get("include_docs")); err != nil {
		return p, badRequest("Invalid boolean parameter: \"" + q.Get("include_docs") + "\"")
	}

	return p, nil
}

func typeRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	case []interface{}:
		return 4
	}
	return 5
}

//collate orders keys the way views do: null, booleans, numbers, strings, arrays, objects
func collate(a, b interface{}) int {

	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}

	switch va := a.(type) {
	case bool:
		vb := b.(bool)
		if va == vb {
			return 0
		}
		if !va {
			return -1
		}
		return 1
	case float64:
		vb := b.(float64)
		if va < vb {
			return -1
		}
		if va > vb {
			return 1
		}
		return 0
	case string:
		return strings.Compare(va, b.(string))
	case []interface{}:
		vb := b.([]interface{})
		for i := 0; i < len(va) && i < len(vb); i++ {
			if c := collate(va[i], vb[i]); c != 0 {
				return c
			}
		}
		return len(va) - len(vb)
	case map[string]interface{}:
		return len(va) - len(b.(map[string]interface{}))
	}
	return 0
}

//normalizeKey gives document values the types produced by JSON decoding
func normalizeKey(v interface{}) interface{} {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var n interface{}
	if err := json.Unmarshal(b, &n); err != nil {
		return v
	}
	return n
}

func (p viewParams) inRange(key interface{}) bool {

	if p.hasKey {
		return collate(key, p.key) == 0
	}

	lower, upper := 1, -1
	if p.descending {
		lower, upper = -1, 1
	}
	if p.hasStart && collate(key, p.startKey)*lower < 0 {
		return false
	}
	if p.hasEnd && collate(key, p.endKey)*upper < 0 {
		return false
	}
	return true
}

type indexEntry struct {
	row api.Row
	rec api.Record
}

//query orders the index, applies the parameters and builds the response
func (p viewParams) query(index []indexEntry) api.ViewResult {

	sort.SliceStable(index, func(i, j int) bool {
		c := collate(index[i].row.Key, index[j].row.Key)
		if c == 0 {
			return index[i].row.ID < index[j].row.ID
		}
		return c < 0
	})
	if p.descending {
		for i, j := 0, len(index)-1; i < j; i, j = i+1, j-1 {
			index[i], index[j] = index[j], index[i]
		}
	}

	res := api.ViewResult{TotalRows: len(index), Rows: []api.Row{}}
	offset := -1
	skipped := 0
	for i, e := range index {
		if !p.inRange(e.row.Key) {
			continue
		}
		if skipped < p.skip {
			skipped++
			continue
		}
		if p.limit >= 0 && len(res.Rows) >= p.limit {
			break
		}
		if offset < 0 {
			offset = i
		}
		row := e.row
		if p.includeDocs {
			row.Doc = e.rec.Document()
		}
		res.Rows = append(res.Rows, row)
	}
	if offset < 0 {
		offset = len(index)
	}
	res.Offset = offset

	return res
}

func (s *Server) allDocs(db string, q url.Values) (interface{}, error) {

	p, err := parseViewParams(q)
	if err != nil {
		return nil, err
	}

	records, err := s.Store.GetAll(db)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list documents")
	}

	index := make([]indexEntry, len(records))
	for i, rec := range records {
		index[i] = indexEntry{
			row: api.Row{ID: rec.ID, Key: rec.ID, Value: map[string]interface{}{"rev": rec.Rev}},
			rec: rec,
		}
	}

	return p.query(index), nil
}

func (s *Server) view(target api.ObjectRef, q url.Values) (interface{}, error) {

	def, found := s.Databases[target.Database()].views[target[2]+"/"+target[4]]
	if !found {
		return nil, notFoundError("missing_named_view")
	}

	p, err := parseViewParams(q)
	if err != nil {
		return nil, err
	}

	records, err := s.Store.GetAll(target.Database())
	if err != nil {
		return nil, errors.Wrap(err, "unable to list documents")
	}

	var index []indexEntry
	for _, rec := range records {
		key, ok := rec.Content[def.KeyField]
		if !ok {
			continue
		}
		var value interface{}
		if len(def.ValueField) > 0 {
			value = rec.Content[def.ValueField]
		}
		index = append(index, indexEntry{
			row: api.Row{ID: rec.ID, Key: normalizeKey(key), Value: value},
			rec: rec,
		})
	}

	return p.query(index), nil
}
