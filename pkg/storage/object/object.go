// Package object holds the value types shared by every storage backend.
package object

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// DefaultListPageSize mirrors the COS / S3 ListObjects page limit.
const DefaultListPageSize = 1000

// ErrNotFound is returned when a key or multipart session does not exist.
var ErrNotFound = errors.New("object not found")

// PutResult is the store's acknowledgment of a single put.
type PutResult struct {
	StatusCode int    `json:"status_code"`
	ETag       string `json:"etag,omitempty"`
	Location   string `json:"location,omitempty"`
	VersionID  string `json:"version_id,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// OK reports whether the acknowledgment carries a success status.
// A zero status means the backend has no HTTP layer and the call did not fail.
func (r *PutResult) OK() bool {
	if r == nil {
		return false
	}
	return r.StatusCode == 0 || (r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices)
}

// ListPage is one page of a prefix listing.
type ListPage struct {
	Keys        []string
	IsTruncated bool
	NextToken   string
}

// CompletedPart identifies one uploaded part when completing a multipart upload.
type CompletedPart struct {
	PartNumber int32  `json:"partNumber"`
	ETag       string `json:"eTag"`
}

// SortParts orders parts by part number, as the store requires on completion.
func SortParts(parts []CompletedPart) []CompletedPart {
	sorted := make([]CompletedPart, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })
	return sorted
}

// IsFolderKey reports whether key addresses a folder marker.
func IsFolderKey(key string) bool {
	return strings.HasSuffix(key, "/")
}

// Paginate returns the page of sorted keys that follow token.
func Paginate(sorted []string, token string, pageSize int) *ListPage {
	if pageSize <= 0 {
		pageSize = DefaultListPageSize
	}
	start := 0
	if token != "" {
		start = sort.SearchStrings(sorted, token)
		if start < len(sorted) && sorted[start] == token {
			start++
		}
	}
	end := start + pageSize
	page := &ListPage{}
	if end < len(sorted) {
		page.IsTruncated = true
		page.NextToken = sorted[end-1]
	} else {
		end = len(sorted)
	}
	page.Keys = append([]string(nil), sorted[start:end]...)
	return page
}
