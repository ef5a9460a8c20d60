package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/models"
)

const (
	DefaultLocalKey      = "y8_scratch_submissions_local"
	DefaultLocalMaxBytes = 5 << 20
)

var (
	ErrQuotaExceeded = errors.New("local storage quota exceeded")
	ErrCorrupt       = errors.New("local storage value is not a JSON list")
)

// StoredEntry is one element of the local list. LegacyID is an "id" value some
// older entries carry; it is only used to label rows without created_at.
type StoredEntry struct {
	models.Submission
	LegacyID string
}

// LocalStore keeps every submission as one JSON list under a single key.
// It has no per-record key, so deletes match on field values.
type LocalStore struct {
	mu       sync.Mutex
	kv       KV
	key      string
	maxBytes int
}

func NewLocalStore(kv KV, key string, maxBytes int) *LocalStore {
	if key == "" {
		key = DefaultLocalKey
	}
	return &LocalStore{kv: kv, key: key, maxBytes: maxBytes}
}

func (s *LocalStore) Close() error {
	return s.kv.Close()
}

// Append adds sub to the end of the list. maxBytes (when > 0) caps the
// serialized list size.
func (s *LocalStore) Append(ctx context.Context, sub models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readRaw(ctx)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}
	entries = append(entries, raw)

	return s.writeRaw(ctx, entries)
}

// List returns the stored entries in stored order. A corrupt value reads as empty.
func (s *LocalStore) List(ctx context.Context) ([]StoredEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readRaw(ctx)
	if errors.Is(err, ErrCorrupt) {
		logger.Error.Printf("Local store %s is unreadable, treating as empty: %v", s.key, err)
		return []StoredEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]StoredEntry, 0, len(entries))
	for _, raw := range entries {
		out = append(out, decodeEntry(raw))
	}
	return out, nil
}

// DeleteMatching removes entries that match target and writes the rest back in
// one overwrite. With a created_at it matches on that alone; without one it
// matches on {student_name, class, project_url, created_at}, which removes every
// field-identical entry. Returns how many entries were removed.
func (s *LocalStore) DeleteMatching(ctx context.Context, target models.Row) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readRaw(ctx)
	if err != nil {
		return 0, err
	}

	kept := make([]json.RawMessage, 0, len(entries))
	for _, raw := range entries {
		e := decodeEntry(raw)
		if matches(e.Submission, target.Submission) {
			continue
		}
		kept = append(kept, raw)
	}

	if err := s.writeRaw(ctx, kept); err != nil {
		return 0, err
	}
	return len(entries) - len(kept), nil
}

func matches(stored, target models.Submission) bool {
	if target.CreatedAt != "" {
		return stored.CreatedAt == target.CreatedAt
	}
	return stored.StudentName == target.StudentName &&
		stored.Class == target.Class &&
		stored.ProjectURL == target.ProjectURL &&
		stored.CreatedAt == target.CreatedAt
}

func (s *LocalStore) readRaw(ctx context.Context) ([]json.RawMessage, error) {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read local store: %w", err)
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return entries, nil
}

func (s *LocalStore) writeRaw(ctx context.Context, entries []json.RawMessage) error {
	if entries == nil {
		entries = []json.RawMessage{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode local store: %w", err)
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		return fmt.Errorf("%w: %d bytes over a limit of %d", ErrQuotaExceeded, len(data), s.maxBytes)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write local store: %w", err)
	}
	return nil
}

// decodeEntry reads each known field on its own so one wrong-typed value does
// not blank the rest of the entry. Non-string items in features are dropped.
func decodeEntry(raw json.RawMessage) StoredEntry {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		logger.Debug.Printf("Skipping malformed local entry: %v", err)
		return StoredEntry{}
	}

	var e StoredEntry
	for name, dst := range map[string]*string{
		"class":            &e.Class,
		"student_name":     &e.StudentName,
		"scratch_username": &e.ScratchUsername,
		"project_id":       &e.ProjectID,
		"project_url":      &e.ProjectURL,
		"project_embed":    &e.ProjectEmbed,
		"created_at":       &e.CreatedAt,
		"user_agent":       &e.UserAgent,
	} {
		if v, ok := fields[name]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				logger.Debug.Printf("Ignoring local entry field %s: %v", name, err)
			}
		}
	}

	if v, ok := fields["features"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err == nil && items != nil {
			e.Features = make([]string, 0, len(items))
			for _, item := range items {
				var f string
				if json.Unmarshal(item, &f) == nil {
					e.Features = append(e.Features, f)
				}
			}
		}
	}

	if v, ok := fields["id"]; ok {
		e.LegacyID = legacyID(v)
	}
	return e
}

// legacyID renders a stored id the way it was written: strings as-is, numbers
// in their literal digits.
func legacyID(v json.RawMessage) string {
	var s string
	if json.Unmarshal(v, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(v, &n) == nil {
		return n.String()
	}
	return ""
}
