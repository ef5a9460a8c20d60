package models

import (
	"strconv"
	"time"
)

// CreatedAtFormat is fixed-width UTC with milliseconds so string order equals time order.
const CreatedAtFormat = "2006-01-02T15:04:05.000Z"

type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Submission is the canonical record. It is never mutated after NewSubmission.
type Submission struct {
	Class           string   `json:"class"`
	StudentName     string   `json:"student_name"`
	ScratchUsername string   `json:"scratch_username"`
	ProjectID       string   `json:"project_id"`
	ProjectURL      string   `json:"project_url"`
	ProjectEmbed    string   `json:"project_embed"`
	Features        []string `json:"features"`
	CreatedAt       string   `json:"created_at"`
	UserAgent       string   `json:"user_agent"`
}

// Row is the view projection of a Submission, rebuilt on every load.
type Row struct {
	Submission
	ID     string `json:"id"`
	Source Source `json:"source"`
}

func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtFormat)
}

// LocalRowID synthesizes an id for a record from the key-less local store.
// legacyID is an "id" value found on the stored entry, if any.
func LocalRowID(createdAt, legacyID string, ordinal int) string {
	if createdAt != "" {
		return "local_" + createdAt
	}
	if legacyID != "" {
		return legacyID
	}
	return "local_" + strconv.Itoa(ordinal)
}
