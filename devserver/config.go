package devserver

import (
	"github.com/xdbsoft/couchrepo/rules"
)

//UUID generation algorithms served by /_uuids
const (
	UUIDRandom = "random"
	UUIDXid    = "xid"
)

//ViewDefinition declares a view emitting one row per document holding KeyField,
//with the value of ValueField (or null) as row value.
type ViewDefinition struct {
	Design     string
	Name       string
	KeyField   string
	ValueField string
}

//DatabaseDefinition describes a database created at startup, its access rules and its views
type DatabaseDefinition struct {
	Name  string
	Rules []rules.Rule
	Views []ViewDefinition
}

//Config contains all required information for the initialisation of a development server
type Config struct {
	OpenIDConnectIssuer string
	// DBConnStr selects the PostgreSQL store; documents are kept in memory when empty
	DBConnStr     string
	UUIDAlgorithm string `default:"random"`
	// CSRFHeader, when set, must be present on every PUT and DELETE request
	CSRFHeader string
	Databases  []DatabaseDefinition
}
