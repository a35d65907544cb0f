//Package couchrepo provides a document repository over the HTTP API of a CouchDB compatible store.
//
//Identifiers are never generated locally: a new document gets its _id from the
//store's _uuids endpoint the first time it is saved. Every write submits the _rev
//the caller last observed, so that the store rejects lost updates with a conflict.
package couchrepo

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/xdbsoft/couchrepo/api"
	"github.com/xdbsoft/couchrepo/transport"
)

//Repository loads, saves, deletes and queries the documents of one database.
//It holds no state besides its configuration and is safe for concurrent use.
type Repository struct {
	locator   api.Locator
	database  string
	transport transport.Adapter
}

//New returns a repository sending its requests through fetcher.
//An invalid locator, an empty database name or a nil fetcher is reported immediately.
func New(cfg Config, fetcher api.Fetcher) (*Repository, error) {

	locator := cfg.locator()
	if err := locator.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Database) == 0 {
		return nil, api.ConfigurationError("database name is empty")
	}
	if fetcher == nil {
		return nil, api.ConfigurationError("fetcher is nil")
	}

	return &Repository{
		locator:  locator,
		database: cfg.Database,
		transport: transport.Adapter{
			Fetcher:    fetcher,
			CSRFHeader: cfg.CSRFHeader,
			CSRFToken:  cfg.CSRFToken,
			Logger:     cfg.logger(),
		},
	}, nil
}

//Database returns the name of the database
func (r *Repository) Database() string {
	return r.database
}

func (r *Repository) serverURL(resource ...string) string {
	return api.ObjectRef(resource).URL(r.locator.Resolve())
}

func (r *Repository) databaseURL(path ...string) string {
	return r.serverURL(append([]string{r.database}, path...)...)
}

func (r *Repository) get(ctx context.Context, url string, params api.Params, v interface{}) error {

	resp, err := r.transport.Get(ctx, url+params.Encode())
	if err != nil {
		return err
	}

	return errors.Wrap(resp.JSON(v), "unable to decode response")
}

//IdentifierFor returns the _id of doc, or an empty string
func IdentifierFor(doc api.Document) string {
	return api.StringField(doc, api.IDField)
}

//RevisionFor returns the _rev of doc, or an empty string
func RevisionFor(doc api.Document) string {
	return api.StringField(doc, api.RevField)
}

//CreateUUID asks the store for a new unique identifier
func (r *Repository) CreateUUID(ctx context.Context) (string, error) {

	var res struct {
		UUIDs []string `json:"uuids"`
	}
	if err := r.get(ctx, r.serverURL("_uuids"), nil, &res); err != nil {
		return "", err
	}
	if len(res.UUIDs) == 0 || len(res.UUIDs[0]) == 0 {
		return "", &api.StoreError{Kind: "no_uuid", Reason: "store returned no identifier"}
	}

	return res.UUIDs[0], nil
}

//ResolveIdentifier returns the identity of doc without any request when it already has an _id.
//An _id that is not a non empty string is a bad request: it is never replaced.
//Otherwise a new identifier is allocated by the store and the revision is empty.
func (r *Repository) ResolveIdentifier(ctx context.Context, doc api.Document) (api.Identity, error) {

	if doc != nil {
		if _, found := doc.Get(api.IDField); found {
			id := IdentifierFor(doc)
			if len(id) == 0 {
				return api.Identity{}, badRequest("document _id must be a non empty string")
			}
			return api.Identity{ID: id, Rev: RevisionFor(doc)}, nil
		}
	}

	id, err := r.CreateUUID(ctx)
	if err != nil {
		return api.Identity{}, errors.Wrap(err, "unable to allocate an identifier")
	}

	return api.Identity{ID: id}, nil
}

//Load returns the current revision of the document id
func (r *Repository) Load(ctx context.Context, id string) (api.Map, error) {

	doc := make(api.Map)
	if err := r.LoadInto(ctx, id, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

//LoadInto decodes the current revision of the document id into v
func (r *Repository) LoadInto(ctx context.Context, id string, v interface{}) error {

	if len(id) == 0 {
		return badRequest("empty document id")
	}

	return r.get(ctx, r.databaseURL(id), nil, v)
}

//stamp sets the resolved identity on a copy of doc. A document without revision
//never keeps a stale _rev.
func stamp(doc api.Document, identity api.Identity) api.Document {

	doc = doc.Clone().Set(api.IDField, identity.ID)
	if len(identity.Rev) > 0 {
		return doc.Set(api.RevField, identity.Rev)
	}
	return doc.Delete(api.RevField)
}

type writeResult struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

func decodeWriteResult(resp *api.Response) (api.RevInfo, error) {

	var res writeResult
	if err := resp.JSON(&res); err != nil {
		return api.RevInfo{}, errors.Wrap(err, "unable to decode write result")
	}
	if !res.OK {
		return api.RevInfo{}, &api.StoreError{Status: resp.Status, Kind: "not_ok", Reason: "store did not acknowledge the write", Raw: resp.Body}
	}

	return api.RevInfo{ID: res.ID, Rev: res.Rev}, nil
}

//Save writes doc and returns the identifier and the new revision reported by the store.
//A nil doc saves an empty document under a freshly allocated identifier.
//doc itself is left untouched: callers must use the returned revision for the next write.
func (r *Repository) Save(ctx context.Context, doc api.Document) (api.RevInfo, error) {

	identity, err := r.ResolveIdentifier(ctx, doc)
	if err != nil {
		return api.RevInfo{}, err
	}

	if doc == nil {
		doc = api.Map{}
	}
	doc = stamp(doc, identity)

	body, err := json.Marshal(doc.Fields())
	if err != nil {
		return api.RevInfo{}, errors.Wrap(err, "unable to encode document")
	}

	resp, err := r.transport.Put(ctx, r.databaseURL(identity.ID), body, identity.Rev)
	if err != nil {
		return api.RevInfo{}, err
	}

	return decodeWriteResult(resp)
}

//Delete removes doc on condition that its _rev is the current one.
//The returned revision is the one of the deletion tombstone.
func (r *Repository) Delete(ctx context.Context, doc api.Document) (api.RevInfo, error) {

	id := IdentifierFor(doc)
	if len(id) == 0 {
		return api.RevInfo{}, badRequest("document has no _id")
	}

	resp, err := r.transport.Delete(ctx, r.databaseURL(id), RevisionFor(doc))
	if err != nil {
		return api.RevInfo{}, err
	}
	if len(resp.Body) == 0 {
		return api.RevInfo{ID: id}, nil
	}

	return decodeWriteResult(resp)
}
