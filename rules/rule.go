package rules

//Rule grants methods on the documents matching Path, e.g. "notes/{id}".
//Segments between braces are variables available to the conditions as path.<name>.
type Rule struct {
	Path  string  `json:"path"`
	Allow []Allow `json:"allow"`
}

//Allow grants Methods when the If condition holds (or is empty).
//Conditions see the variables path, user and doc (the document written, for WRITE).
type Allow struct {
	Methods []Method `json:"methods"`
	If      string   `json:"if"`
}

type Method string

const (
	READ   Method = "READ"
	WRITE  Method = "WRITE"
	DELETE Method = "DELETE"
)
