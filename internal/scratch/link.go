// Package scratch turns free-text project references into canonical Scratch URLs.
package scratch

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	projectURLTpl = "https://scratch.mit.edu/projects/%s/"
	embedURLTpl   = "https://scratch.mit.edu/projects/%s/embed"

	ReasonEmpty        = "Paste your Scratch project link."
	ReasonUnrecognized = "That doesn't look like a Scratch project link. It should include: scratch.mit.edu/projects/..."
)

var (
	bareIDRegex     = regexp.MustCompile(`^\d{4,}$`)
	projectRefRegex = regexp.MustCompile(`(?i)scratch\.mit\.edu/projects/(\d{4,})`)
)

type Failure int

const (
	FailureNone Failure = iota
	FailureEmpty
	FailureUnrecognized
)

// Link is the outcome of Normalize. When OK is false only Failure and Reason are set.
type Link struct {
	OK      bool
	ID      string
	URL     string
	Embed   string
	Failure Failure
	Reason  string
}

// Normalize accepts a bare numeric id (4+ digits) or any text containing
// scratch.mit.edu/projects/<id>. It never panics.
func Normalize(raw string) Link {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Link{Failure: FailureEmpty, Reason: ReasonEmpty}
	}

	if bareIDRegex.MatchString(s) {
		return fromID(s)
	}

	m := projectRefRegex.FindStringSubmatch(s)
	if m == nil {
		return Link{Failure: FailureUnrecognized, Reason: ReasonUnrecognized}
	}
	return fromID(m[1])
}

func fromID(id string) Link {
	return Link{
		OK:    true,
		ID:    id,
		URL:   fmt.Sprintf(projectURLTpl, id),
		Embed: fmt.Sprintf(embedURLTpl, id),
	}
}

// EmbedURL builds the embeddable URL for a stored project id. Empty id yields "".
func EmbedURL(projectID string) string {
	if projectID == "" {
		return ""
	}
	return fmt.Sprintf(embedURLTpl, url.PathEscape(projectID))
}
