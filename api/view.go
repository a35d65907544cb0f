package api

//Row is a single entry of an _all_docs or view response
type Row struct {
	ID    string      `json:"id,omitempty"`
	Key   interface{} `json:"key"`
	Value interface{} `json:"value"`
	Doc   Map         `json:"doc,omitempty"`
}

//ViewResult is the body returned by _all_docs and views
type ViewResult struct {
	TotalRows int   `json:"total_rows"`
	Offset    int   `json:"offset"`
	Rows      []Row `json:"rows"`
}
