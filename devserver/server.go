//Package devserver implements the subset of the CouchDB HTTP API used by couchrepo:
//identifier allocation, databases, documents with revisions, _all_docs and simple views.
//It is meant for development and tests.
package devserver

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/xdbsoft/couchrepo/api"
	"github.com/xdbsoft/couchrepo/oidc"
	"github.com/xdbsoft/couchrepo/postgresql"
	"github.com/xdbsoft/couchrepo/rules"
)

//New instantiates a development server from its configuration
func New(cfg Config) (http.Handler, error) {

	var store api.Store
	if len(cfg.DBConnStr) > 0 {
		r, err := postgresql.New(cfg.DBConnStr)
		if err != nil {
			return nil, err
		}
		store = r
	} else {
		store = NewMemoryStore()
	}

	var a api.Authenticator
	if len(cfg.OpenIDConnectIssuer) > 0 {
		var err error
		a, err = oidc.New(cfg.OpenIDConnectIssuer)
		if err != nil {
			return nil, err
		}
	}

	return NewServer(cfg, store, a)
}

type database struct {
	checker rules.Checker
	views   map[string]ViewDefinition
}

//Server serves the documents of Store
type Server struct {
	Store         api.Store
	Authenticator api.Authenticator
	Databases     map[string]database
	CSRFHeader    string
	NewUUID       func() string
}

//NewServer initializes store and creates the configured databases that do not exist yet.
//The authenticator may be nil.
func NewServer(cfg Config, store api.Store, a api.Authenticator) (*Server, error) {

	if err := store.Init(); err != nil {
		return nil, err
	}

	newUUID, err := newUUIDFunc(cfg.UUIDAlgorithm)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Store:         store,
		Authenticator: a,
		Databases:     make(map[string]database),
		CSRFHeader:    cfg.CSRFHeader,
		NewUUID:       newUUID,
	}

	for _, d := range cfg.Databases {
		views := make(map[string]ViewDefinition)
		for _, v := range d.Views {
			views[v.Design+"/"+v.Name] = v
		}
		s.Databases[d.Name] = database{
			checker: rules.NewChecker(d.Rules),
			views:   views,
		}

		exists, err := store.DatabaseExists(d.Name)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := store.CreateDatabase(d.Name); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

//ServeHTTP authenticates the request, checks CSRF and rules, and routes it
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	user, err := s.authenticate(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	target, err := getTarget(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Println(r.Method, target, "by", user.ID)

	if r.Method == http.MethodPut || r.Method == http.MethodDelete {
		if err := s.checkCSRF(r); err != nil {
			handleError(w, r, err)
			return
		}
	}

	if len(target) > 1 && target.Database() != "" {
		if err := s.checkDatabase(target.Database()); err != nil {
			handleError(w, r, err)
			return
		}
	}

	var data interface{}
	status := http.StatusOK

	switch {
	case len(target) == 0:
		data, err = welcome(r)
	case target[0] == "_uuids":
		data, err = s.uuids(r)
	case target.Database() == "":
		err = badRequest("Name: '" + target[0] + "'. Only lowercase characters (a-z), digits (0-9), and any of the characters _, $, (, ), +, -, and / are allowed. Must begin with a letter.")
	case len(target) == 1:
		status, data, err = s.serveDatabase(r, target, user)
	case len(target) == 2 && target[1] == "_all_docs":
		if r.Method != http.MethodGet {
			err = methodNotAllowed("GET")
			break
		}
		if err = s.checkIsAuthorized(target[:1], user, rules.READ, nil); err == nil {
			data, err = s.allDocs(target.Database(), r.URL.Query())
		}
	case target.IsView():
		if r.Method != http.MethodGet {
			err = methodNotAllowed("GET")
			break
		}
		if err = s.checkIsAuthorized(target[:1], user, rules.READ, nil); err == nil {
			data, err = s.view(target, r.URL.Query())
		}
	case target.IsDocument():
		status, data, err = s.serveDocument(r, target, user)
	default:
		err = notFoundError("missing")
	}

	if err != nil {
		handleError(w, r, err)
		return
	}

	s.handleResponse(w, r, status, data)
}

func (s *Server) authenticate(r *http.Request) (api.User, error) {
	if s.Authenticator == nil {
		return api.User{}, nil
	}

	return s.Authenticator.Authenticate(r)
}

func getTarget(r *http.Request) (api.ObjectRef, error) {

	target, err := api.ParseObjectRef(strings.TrimSuffix(r.URL.EscapedPath(), "/"))
	if err != nil {
		return nil, badRequest("invalid path")
	}
	for _, item := range target {
		if len(item) == 0 {
			return nil, badRequest("empty item in path")
		}
	}
	return target, nil
}

func (s *Server) checkDatabase(db string) error {
	exists, err := s.Store.DatabaseExists(db)
	if err != nil {
		return err
	}
	if !exists {
		return notFoundError("Database does not exist.")
	}
	return nil
}

func (s *Server) checkCSRF(r *http.Request) error {
	if len(s.CSRFHeader) > 0 && len(r.Header.Get(s.CSRFHeader)) == 0 {
		return forbiddenError("missing CSRF token")
	}
	return nil
}

func (s *Server) checkIsAuthorized(target api.ObjectRef, user api.User, method rules.Method, doc api.Map) error {

	ok, err := s.Databases[target.Database()].checker.Check(target, user, method, doc)
	if err != nil {
		return err
	}

	if !ok {
		return forbiddenError("You are not allowed to access this document.")
	}

	return nil
}

func welcome(r *http.Request) (interface{}, error) {
	if r.Method != http.MethodGet {
		return nil, methodNotAllowed("GET,HEAD")
	}
	return map[string]interface{}{
		"couchdb": "Welcome",
		"vendor":  map[string]string{"name": "couchrepo devserver"},
	}, nil
}

func (s *Server) uuids(r *http.Request) (interface{}, error) {

	if r.Method != http.MethodGet {
		return nil, methodNotAllowed("GET")
	}

	count := 1
	if c := r.URL.Query().Get("count"); len(c) > 0 {
		n, err := strconv.Atoi(c)
		if err != nil || n < 1 {
			return nil, badRequest("Invalid value for integer: \"" + c + "\"")
		}
		if n > maxUUIDCount {
			return nil, forbiddenError("count parameter too large")
		}
		count = n
	}

	uuids := make([]string, count)
	for i := range uuids {
		uuids[i] = s.NewUUID()
	}

	return map[string]interface{}{"uuids": uuids}, nil
}

func (s *Server) serveDatabase(r *http.Request, target api.ObjectRef, user api.User) (int, interface{}, error) {

	db := target.Database()

	switch r.Method {
	case http.MethodGet:
		if err := s.checkIsAuthorized(target, user, rules.READ, nil); err != nil {
			return 0, nil, err
		}
		docs, err := s.Store.GetAll(db)
		if err != nil {
			return 0, nil, err
		}
		seq, err := s.Store.UpdateSeq(db)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, map[string]interface{}{
			"db_name":    db,
			"doc_count":  len(docs),
			"update_seq": strconv.FormatInt(seq, 10),
		}, nil

	case http.MethodPut:
		if err := s.checkIsAuthorized(target, user, rules.WRITE, nil); err != nil {
			return 0, nil, err
		}
		if err := s.Store.CreateDatabase(db); err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, map[string]interface{}{"ok": true}, nil

	case http.MethodDelete:
		if err := s.checkIsAuthorized(target, user, rules.DELETE, nil); err != nil {
			return 0, nil, err
		}
		if err := s.Store.DeleteDatabase(db); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, map[string]interface{}{"ok": true}, nil
	}

	return 0, nil, methodNotAllowed("DELETE,GET,HEAD,PUT")
}

func (s *Server) serveDocument(r *http.Request, target api.ObjectRef, user api.User) (int, interface{}, error) {

	switch r.Method {
	case http.MethodGet:
		if err := s.checkIsAuthorized(target, user, rules.READ, nil); err != nil {
			return 0, nil, err
		}
		data, err := s.GetDocument(target)
		return http.StatusOK, data, err

	case http.MethodPut:
		payload := make(api.Map)
		if err := getPayload(r, &payload); err != nil {
			return 0, nil, err
		}
		if err := s.checkIsAuthorized(target, user, rules.WRITE, payload); err != nil {
			return 0, nil, err
		}
		data, err := s.PutDocument(target, payload, submittedRevisions(r, payload))
		return http.StatusCreated, data, err

	case http.MethodDelete:
		if err := s.checkIsAuthorized(target, user, rules.DELETE, nil); err != nil {
			return 0, nil, err
		}
		data, err := s.DeleteDocument(target, submittedRevisions(r, nil))
		return http.StatusOK, data, err
	}

	return 0, nil, methodNotAllowed("DELETE,GET,HEAD,POST,PUT")
}

func getPayload(r *http.Request, payload interface{}) error {
	if r.Body != nil {
		defer r.Body.Close()
		d := json.NewDecoder(r.Body)
		err := d.Decode(payload)
		if err != nil && err != io.EOF {
			return badRequest(errors.Wrap(err, "Unable to decode JSON body").Error())
		}
	}
	return nil
}

//submittedRevisions returns the non empty revisions given in the body, the If-Match header and the rev parameter
func submittedRevisions(r *http.Request, payload api.Map) []string {

	var revs []string
	if rev := api.StringField(payload, api.RevField); len(rev) > 0 {
		revs = append(revs, rev)
	}
	if rev := strings.Trim(r.Header.Get("If-Match"), `"`); len(rev) > 0 {
		revs = append(revs, rev)
	}
	if rev := r.URL.Query().Get("rev"); len(rev) > 0 {
		revs = append(revs, rev)
	}
	return revs
}

func singleRevision(revs []string) (string, error) {
	for _, rev := range revs {
		if rev != revs[0] {
			return "", badRequest("Document rev from request body and query string have different values")
		}
	}
	if len(revs) == 0 {
		return "", nil
	}
	return revs[0], nil
}

//GetDocument returns the current revision of target, failing for tombstones
func (s *Server) GetDocument(target api.ObjectRef) (api.Map, error) {

	rec, err := s.Store.Get(target)
	if err != nil {
		return nil, err
	}
	if rec.Deleted {
		return nil, notFoundError("deleted")
	}

	return rec.Document(), nil
}

func writeResult(rec api.Record) map[string]interface{} {
	return map[string]interface{}{"ok": true, "id": rec.ID, "rev": rec.Rev}
}

//PutDocument creates or updates target. Updating requires the current revision;
//creating, or recreating a deleted document, requires none.
func (s *Server) PutDocument(target api.ObjectRef, payload api.Map, revs []string) (map[string]interface{}, error) {

	rev, err := singleRevision(revs)
	if err != nil {
		return nil, err
	}
	if id := api.StringField(payload, api.IDField); len(id) > 0 && id != target.ID() {
		return nil, badRequest("Document id must match the URL")
	}

	current, err := s.Store.Get(target)
	found := err == nil
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	switch {
	case found && !current.Deleted && rev != current.Rev:
		return nil, conflictError{}
	case found && current.Deleted && len(rev) > 0 && rev != current.Rev:
		return nil, conflictError{}
	case !found && len(rev) > 0:
		return nil, conflictError{}
	}

	content := make(api.Map, len(payload))
	for k, v := range payload {
		if k != api.IDField && k != api.RevField {
			content[k] = v
		}
	}

	newRev, err := nextRevision(current.Rev, false, content)
	if err != nil {
		return nil, errors.Wrap(err, "unable to compute revision")
	}

	rec := api.Record{ID: target.ID(), Rev: newRev, Content: content, Updated: time.Now()}
	if err := s.Store.Put(target, current.Rev, rec); err != nil {
		return nil, err
	}

	return writeResult(rec), nil
}

//DeleteDocument replaces target with a tombstone, on condition that the current revision was given.
//A stale revision is a conflict even once the document is deleted.
func (s *Server) DeleteDocument(target api.ObjectRef, revs []string) (map[string]interface{}, error) {

	rev, err := singleRevision(revs)
	if err != nil {
		return nil, err
	}

	current, err := s.Store.Get(target)
	if err != nil {
		return nil, err
	}
	if rev != current.Rev {
		return nil, conflictError{}
	}
	if current.Deleted {
		return nil, notFoundError("deleted")
	}

	newRev, err := nextRevision(current.Rev, true, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to compute revision")
	}

	rec := api.Record{ID: target.ID(), Rev: newRev, Deleted: true, Content: api.Map{}, Updated: time.Now()}
	if err := s.Store.Put(target, current.Rev, rec); err != nil {
		return nil, err
	}

	return writeResult(rec), nil
}

func (s *Server) handleResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {

	// Handle ETag / If-None-Match on documents
	if doc, ok := data.(api.Map); ok && r.Method == http.MethodGet {
		if rev := api.StringField(doc, api.RevField); len(rev) > 0 {
			etag := `"` + rev + `"`
			w.Header().Set("ETag", etag)

			if r.Header.Get("If-None-Match") == etag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}
	if res, ok := data.(map[string]interface{}); ok && r.Method != http.MethodGet {
		if rev, ok := res["rev"].(string); ok {
			w.Header().Set("ETag", `"`+rev+`"`)
		}
	}

	writeJSON(w, status, data)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Println(err)
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {

	log.Println(err)

	se := toStoreError(err)
	if se == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_server_error", "reason": "Internal server error"})
		return
	}

	writeJSON(w, se.Status(), map[string]string{"error": se.Kind(), "reason": se.Error()})
}
