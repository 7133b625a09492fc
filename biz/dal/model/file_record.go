package model

import (
	"path"
	"strings"
	"time"
)

// FolderType tags folder records; file records carry their content type instead.
const FolderType = "Folder"

// FileRecord mirrors one stored object (file or folder marker) and links it into a tree.
type FileRecord struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
	FileID        string    `gorm:"column:file_id;type:varchar(36);uniqueIndex:uk_file_record_file_id" json:"id"`
	Name          string    `gorm:"column:name;type:varchar(255)" json:"name"`
	Type          string    `gorm:"column:type;type:varchar(255)" json:"type"`
	Size          int64     `gorm:"column:size" json:"size,omitempty"`
	Bucket        string    `gorm:"column:bucket;type:varchar(255)" json:"bucket"`
	Key           string    `gorm:"column:object_key;type:varchar(1024)" json:"key"`
	StoreResponse string    `gorm:"column:store_response;type:text" json:"store_response,omitempty"`
	ParentID      *string   `gorm:"column:parent_id;type:varchar(36);index:idx_file_record_parent" json:"parent_id,omitempty"`
	CreatedBy     int       `gorm:"column:created_by" json:"created_by,omitempty"`
}

// TableName overrides gorm to use file_record table.
func (FileRecord) TableName() string {
	return "file_record"
}

// IsFolder reports whether the record is a folder.
func (r *FileRecord) IsFolder() bool {
	return r.Type == FolderType
}

// Segment is the record's component in a resolved path: the folder name,
// or the final element of a file's key.
func (r *FileRecord) Segment() string {
	if r.IsFolder() {
		return r.Name
	}
	return path.Base(strings.TrimSuffix(r.Key, "/"))
}
