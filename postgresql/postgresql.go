package postgresql

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	//we expect to depend on specific behaviour of github.com/lib/pq
	_ "github.com/lib/pq"
	"github.com/xdbsoft/couchrepo/api"
)

func New(connStr string) (api.Store, error) {

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect")
	}

	return &repository{
		db: db,
	}, nil
}

type repository struct {
	db *sql.DB
}

type notFound string

func (err notFound) IsNotFound() bool {
	return true
}
func (err notFound) Error() string {
	return string(err)
}

type conflict string

func (err conflict) IsConflict() bool {
	return true
}
func (err conflict) Error() string {
	return string(err)
}

func (r *repository) Init() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS t_database (
			name       text NOT NULL,
			update_seq bigint NOT NULL DEFAULT 0,
			CONSTRAINT t_database_pkey PRIMARY KEY (name)
		)`); err != nil {
		return errors.Wrap(err, "CREATE TABLE t_database failed")
	}
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS t_document (
			database   text NOT NULL REFERENCES t_database (name) ON DELETE CASCADE,
			id         text NOT NULL,
			rev        text NOT NULL,
			deleted    boolean NOT NULL DEFAULT false,
			content    jsonb,
			updated    timestamp with time zone NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT t_document_pkey PRIMARY KEY (database, id)
		)`); err != nil {
		return errors.Wrap(err, "CREATE TABLE t_document failed")
	}
	return nil
}

func (r *repository) CreateDatabase(name string) error {

	res, err := r.db.Exec("INSERT INTO t_database (name) VALUES ($1) ON CONFLICT DO NOTHING", name)
	if err != nil {
		return errors.Wrap(err, "unable to create database")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fileExists("The database could not be created, the file already exists.")
	}
	return nil
}

type fileExists string

func (err fileExists) Error() string { return string(err) }

//Status and Kind let the server answer 412 file_exists
func (err fileExists) Status() int  { return 412 }
func (err fileExists) Kind() string { return "file_exists" }

func (r *repository) DeleteDatabase(name string) error {

	res, err := r.db.Exec("DELETE FROM t_database WHERE name=$1", name)
	if err != nil {
		return errors.Wrap(err, "unable to delete database")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("Database does not exist.")
	}
	return nil
}

func (r *repository) DatabaseExists(name string) (bool, error) {

	var found int
	err := r.db.QueryRow("SELECT count(*) FROM t_database WHERE name=$1", name).Scan(&found)
	if err != nil {
		return false, errors.Wrap(err, "select query for t_database failed")
	}
	return found > 0, nil
}

func (r *repository) UpdateSeq(name string) (int64, error) {

	var seq int64
	err := r.db.QueryRow("SELECT update_seq FROM t_database WHERE name=$1", name).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, notFound("Database does not exist.")
	}
	if err != nil {
		return 0, errors.Wrap(err, "select query for t_database failed")
	}
	return seq, nil
}

func (r *repository) Get(d api.ObjectRef) (api.Record, error) {

	rows, err := r.db.Query("SELECT rev, deleted, content, updated FROM t_document WHERE database=$1 AND id=$2", d.Database(), d.ID())
	if err != nil {
		return api.Record{}, errors.Wrap(err, "Select query failed")
	}
	defer rows.Close()

	if !rows.Next() {
		if exists, err := r.DatabaseExists(d.Database()); err == nil && !exists {
			return api.Record{}, notFound("Database does not exist.")
		}
		return api.Record{}, notFound("missing")
	}

	rec := api.Record{ID: d.ID()}
	var s []byte
	if err := rows.Scan(&rec.Rev, &rec.Deleted, &s, &rec.Updated); err != nil {
		return api.Record{}, errors.Wrap(err, "DB retrieval failed")
	}

	if err := json.Unmarshal(s, &rec.Content); err != nil {
		return api.Record{}, errors.Wrap(err, "DB decoding failed")
	}

	return rec, nil
}

func (r *repository) GetAll(name string) ([]api.Record, error) {

	if exists, err := r.DatabaseExists(name); err != nil {
		return nil, err
	} else if !exists {
		return nil, notFound("Database does not exist.")
	}

	rows, err := r.db.Query("SELECT id, rev, content, updated FROM t_document WHERE database=$1 AND NOT deleted ORDER BY id", name)
	if err != nil {
		return nil, errors.Wrap(err, "DB query failed")
	}
	defer rows.Close()

	var result []api.Record
	for rows.Next() {
		var rec api.Record
		var b []byte
		var updated time.Time
		if err := rows.Scan(&rec.ID, &rec.Rev, &b, &updated); err != nil {
			return nil, errors.Wrap(err, "DB retrieval failed")
		}
		rec.Updated = updated

		if err := json.Unmarshal(b, &rec.Content); err != nil {
			return nil, errors.Wrap(err, "DB decoding failed")
		}

		result = append(result, rec)
	}

	return result, rows.Err()
}

//Put relies on the primary key and on the rev condition to reject concurrent writers.
func (r *repository) Put(d api.ObjectRef, expectedRev string, rec api.Record) error {

	b, err := json.Marshal(rec.Content)
	if err != nil {
		return errors.Wrap(err, "unable to encode payload")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "unable to begin transaction")
	}
	defer tx.Rollback()

	var res sql.Result
	if len(expectedRev) == 0 {
		res, err = tx.Exec("INSERT INTO t_document (database, id, rev, deleted, content) VALUES ($1,$2,$3,$4,$5) ON CONFLICT (database, id) DO NOTHING",
			d.Database(), d.ID(), rec.Rev, rec.Deleted, b)
	} else {
		res, err = tx.Exec("UPDATE t_document SET rev=$1, deleted=$2, content=$3, updated=CURRENT_TIMESTAMP WHERE database=$4 AND id=$5 AND rev=$6",
			rec.Rev, rec.Deleted, b, d.Database(), d.ID(), expectedRev)
	}
	if err != nil {
		return errors.Wrap(err, "unable to write document")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "unable to write document")
	}
	if n == 0 {
		return conflict("Document update conflict.")
	}

	if _, err := tx.Exec("UPDATE t_database SET update_seq = update_seq + 1 WHERE name=$1", d.Database()); err != nil {
		return errors.Wrap(err, "unable to update sequence")
	}

	return errors.Wrap(tx.Commit(), "unable to commit")
}
