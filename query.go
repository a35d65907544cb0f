package couchrepo

import (
	"context"

	"github.com/xdbsoft/couchrepo/api"
)

//Query groups the read-only requests that do not target a single document
type Query struct {
	r *Repository
}

//Query returns the query namespace of the repository
func (r *Repository) Query() Query {
	return Query{r: r}
}

//All returns the database information
func (q Query) All(ctx context.Context, params api.Params) (api.Map, error) {
	res := make(api.Map)
	if err := q.r.get(ctx, q.r.databaseURL(), params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

//AllDocs returns the raw _all_docs listing
func (q Query) AllDocs(ctx context.Context, params api.Params) (api.Map, error) {
	res := make(api.Map)
	if err := q.r.get(ctx, q.r.databaseURL("_all_docs"), params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

//AllDocsRows returns the _all_docs listing decoded as rows
func (q Query) AllDocsRows(ctx context.Context, params api.Params) (api.ViewResult, error) {
	var res api.ViewResult
	err := q.r.get(ctx, q.r.databaseURL("_all_docs"), params, &res)
	return res, err
}

//Design returns the views of the design document name
func (q Query) Design(name string) Design {
	return Design{q: q, name: name}
}

//Design gives access to the views of a design document
type Design struct {
	q    Query
	name string
}

func (d Design) viewURL(view string) string {
	return d.q.r.databaseURL("_design", d.name, "_view", view)
}

//View runs the view and returns the raw response
func (d Design) View(ctx context.Context, view string, params api.Params) (api.Map, error) {
	res := make(api.Map)
	if err := d.q.r.get(ctx, d.viewURL(view), params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

//ViewRows runs the view and decodes its rows
func (d Design) ViewRows(ctx context.Context, view string, params api.Params) (api.ViewResult, error) {
	var res api.ViewResult
	err := d.q.r.get(ctx, d.viewURL(view), params, &res)
	return res, err
}
