package docstore

import (
	"strings"
	"time"

	"github.com/chirino/journal-service/internal/docstore/codec"
	"github.com/chirino/journal-service/internal/docstore/value"
)

// Document is a stored document as returned by the server.
type Document struct {
	// Name is the full resource name,
	// projects/{p}/databases/{d}/documents/{path}.
	Name       string        `json:"name"`
	Fields     *value.Fields `json:"fields"`
	CreateTime time.Time     `json:"createTime"`
	UpdateTime time.Time     `json:"updateTime"`
}

const documentsMarker = "/documents/"

// Path returns the document path relative to the documents root.
func (d *Document) Path() Path {
	name := d.Name
	if i := strings.Index(name, documentsMarker); i >= 0 {
		name = name[i+len(documentsMarker):]
	}
	p, _ := ParsePath(name)
	return p
}

// ID is the last segment of the document name.
func (d *Document) ID() string {
	if i := strings.LastIndexByte(d.Name, '/'); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

// Record wraps the document's fields for decoding.
func (d *Document) Record() codec.Record {
	return codec.NewRecord(d.Path().String(), d.Fields)
}

func (d *Document) normalize() {
	if d.Fields == nil {
		d.Fields = value.NewFields()
	}
}
