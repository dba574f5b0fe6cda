package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Content types. code and notes carry their body inline; files entries
// reference an uploaded blob.
const (
	TypeCode  = "code"
	TypeNotes = "notes"
	TypeFiles = "files"
)

// ValidContentType reports whether t is one of the known content types.
func ValidContentType(t string) bool {
	return t == TypeCode || t == TypeNotes || t == TypeFiles
}

// Content is a single shared item stored in MongoDB.
type Content struct {
	ID          primitive.ObjectID `json:"id"                 bson:"_id,omitempty"`
	Title       string             `json:"title"              bson:"title"`
	Description string             `json:"description"        bson:"description"`
	Type        string             `json:"type"               bson:"type"`
	Content     string             `json:"content,omitempty"  bson:"content,omitempty"`
	FilePath    string             `json:"filePath,omitempty" bson:"file_path,omitempty"`
	FileName    string             `json:"fileName,omitempty" bson:"file_name,omitempty"`
	Author      string             `json:"author"             bson:"author"`
	CreatedAt   time.Time          `json:"createdAt"          bson:"created_at"`
}

// CreateContentRequest is the JSON body for POST /api/content.
type CreateContentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Content     string `json:"content"`
}

// UpdateContentRequest is the JSON body for PUT /api/content/{id}.
// Nil fields are left untouched.
type UpdateContentRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
	Content     *string `json:"content"`
}
