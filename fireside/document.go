package fireside

import (
	"strings"

	"github.com/fireside-db/fireside/types"
)

// Document is the wire form of one stored document. Name is the full
// resource path; CreateTime and UpdateTime are set by the store.
type Document struct {
	Name       string       `json:"name"`
	Fields     types.Fields `json:"fields"`
	CreateTime string       `json:"createTime,omitempty"`
	UpdateTime string       `json:"updateTime,omitempty"`
}

// ID returns the trailing segment of the document's resource path.
func (d Document) ID() string {
	if i := strings.LastIndexByte(d.Name, '/'); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

// Dynamic returns the document's fields as plain Go values.
func (d Document) Dynamic() map[string]any {
	return types.FieldsToDynamic(d.Fields)
}

type writeRequest struct {
	Fields types.Fields `json:"fields"`
}

type listResponse struct {
	Documents     []Document `json:"documents"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

// queryEnvelope is one line of a runQuery response. Lines without a
// document carry only bookkeeping such as readTime.
type queryEnvelope struct {
	Document *Document `json:"document,omitempty"`
	ReadTime string    `json:"readTime,omitempty"`
}
