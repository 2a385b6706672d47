package auditlog

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/yxshee/marfa-gallery/internal/platform/identifier"
)

var ErrInvalidAuditLog = errors.New("invalid audit log input")

// Actions recorded by the gallery.
const (
	ActionArtMinted           = "art_minted"
	ActionProfileUpdated      = "profile_updated"
	ActionIdentifiersBackfill = "identifiers_backfilled"
	ActionGallerySeeded       = "gallery_seeded"
)

const defaultMaxEntries = 10000

// Entry is one recorded state change. ActorWallet is the wallet that
// caused it; sessions carry a role, anonymous mints do not.
type Entry struct {
	ID           string          `json:"id"`
	ActorWallet  string          `json:"actor_wallet"`
	ActorRole    string          `json:"actor_role,omitempty"`
	Action       string          `json:"action"`
	TargetType   string          `json:"target_type"`
	TargetID     string          `json:"target_id"`
	BeforeJSON   json.RawMessage `json:"before_json,omitempty"`
	AfterJSON    json.RawMessage `json:"after_json,omitempty"`
	MetadataJSON json.RawMessage `json:"metadata_json,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type RecordInput struct {
	ActorWallet string
	ActorRole   string
	Action      string
	TargetType  string
	TargetID    string
	Before      interface{}
	After       interface{}
	Metadata    interface{}
}

type ListInput struct {
	ActorWallet string
	Action      string
	TargetType  string
	TargetID    string
	Limit       int
	Offset      int
}

type ListResult struct {
	Items []Entry `json:"items"`
	Total int     `json:"total"`
}

// Service keeps the most recent entries in memory. Once maxEntries is
// reached the oldest entry is dropped for every new one.
type Service struct {
	mu         sync.RWMutex
	entries    []Entry
	maxEntries int
	now        func() time.Time
}

func NewService(maxEntries int) *Service {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Service{
		entries:    make([]Entry, 0),
		maxEntries: maxEntries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Record(input RecordInput) (Entry, error) {
	actorWallet, err := normalizeRequired(input.ActorWallet, true)
	if err != nil {
		return Entry{}, err
	}
	action, err := normalizeRequired(input.Action, true)
	if err != nil {
		return Entry{}, err
	}
	targetType, err := normalizeRequired(input.TargetType, true)
	if err != nil {
		return Entry{}, err
	}
	targetID, err := normalizeRequired(input.TargetID, false)
	if err != nil {
		return Entry{}, err
	}

	beforeJSON, err := normalizeOptionalJSON(input.Before)
	if err != nil {
		return Entry{}, err
	}
	afterJSON, err := normalizeOptionalJSON(input.After)
	if err != nil {
		return Entry{}, err
	}
	metadataJSON, err := normalizeOptionalJSON(input.Metadata)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:           identifier.New("aud"),
		ActorWallet:  actorWallet,
		ActorRole:    strings.ToLower(strings.TrimSpace(input.ActorRole)),
		Action:       action,
		TargetType:   targetType,
		TargetID:     targetID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		MetadataJSON: metadataJSON,
		CreatedAt:    s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.maxEntries {
		s.entries = append(s.entries[:0], s.entries[len(s.entries)-s.maxEntries+1:]...)
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

// List returns matching entries newest first.
func (s *Service) List(input ListInput) ListResult {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	actorWallet := strings.ToLower(strings.TrimSpace(input.ActorWallet))
	action := strings.ToLower(strings.TrimSpace(input.Action))
	targetType := strings.ToLower(strings.TrimSpace(input.TargetType))
	targetID := strings.TrimSpace(input.TargetID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if actorWallet != "" && entry.ActorWallet != actorWallet {
			continue
		}
		if action != "" && entry.Action != action {
			continue
		}
		if targetType != "" && entry.TargetType != targetType {
			continue
		}
		if targetID != "" && entry.TargetID != targetID {
			continue
		}
		matches = append(matches, entry)
	}

	total := len(matches)
	if offset >= total {
		return ListResult{Items: []Entry{}, Total: total}
	}

	end := offset + limit
	if end > total {
		end = total
	}

	items := make([]Entry, end-offset)
	copy(items, matches[offset:end])
	return ListResult{Items: items, Total: total}
}

func normalizeRequired(raw string, forceLower bool) (string, error) {
	value := strings.TrimSpace(raw)
	if forceLower {
		value = strings.ToLower(value)
	}
	if value == "" {
		return "", ErrInvalidAuditLog
	}
	return value, nil
}

func normalizeOptionalJSON(value interface{}) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}

	switch typed := value.(type) {
	case json.RawMessage:
		if len(strings.TrimSpace(string(typed))) == 0 {
			return nil, nil
		}
		if !json.Valid(typed) {
			return nil, ErrInvalidAuditLog
		}
		return typed, nil
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, ErrInvalidAuditLog
		}
		return json.RawMessage(encoded), nil
	}
}
