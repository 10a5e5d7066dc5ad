package interview

import (
	"fmt"
	"sync"
)

// ChoiceID is the observation recorded for a single evidence id.
type ChoiceID string

const (
	ChoicePresent ChoiceID = "present"
	ChoiceAbsent  ChoiceID = "absent"
	ChoiceUnknown ChoiceID = "unknown"
)

// Valid reports whether c is one of the three accepted observations.
func (c ChoiceID) Valid() bool {
	switch c {
	case ChoicePresent, ChoiceAbsent, ChoiceUnknown:
		return true
	}
	return false
}

// Source tags where a piece of evidence came from. The zero value means the
// item was collected dynamically while answering interview questions.
type Source string

const (
	SourceDynamic    Source = ""
	SourceInitial    Source = "initial"
	SourceSuggest    Source = "suggest"
	SourcePredefined Source = "predefined"
	SourceRedFlags   Source = "red_flags"
)

// EvidenceItem is one confirmed, denied or unknown fact about the patient.
type EvidenceItem struct {
	ID       string   `json:"id"`
	ChoiceID ChoiceID `json:"choice_id"`
	Source   Source   `json:"source,omitempty"`
}

func (e EvidenceItem) validate() error {
	if e.ID == "" {
		return &ValidationError{Field: "id", Message: "evidence id is required"}
	}
	if !e.ChoiceID.Valid() {
		return &ValidationError{Field: "choice_id", Message: fmt.Sprintf("unsupported choice %q", e.ChoiceID)}
	}
	return nil
}

// Mention is a single evidence candidate returned by the symptom parser.
type Mention struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ChoiceID  ChoiceID `json:"choice_id"`
	Initial   bool     `json:"initial,omitempty"`
	Relevance *float64 `json:"relevance,omitempty"`
}

// EvidenceStore keeps at most one item per id, in insertion order.
// A replaced item moves to the end of the list.
type EvidenceStore struct {
	mu    sync.RWMutex
	items []EvidenceItem
}

func NewEvidenceStore() *EvidenceStore {
	return &EvidenceStore{}
}

// Upsert inserts item or replaces the existing entry with the same id.
func (s *EvidenceStore) Upsert(item EvidenceItem) error {
	return s.UpsertBatch([]EvidenceItem{item})
}

// UpsertBatch validates every item first and then applies the whole batch
// at once: entries sharing an id with the batch are dropped and the batch is
// appended in order. Within the batch the last item for an id wins.
func (s *EvidenceStore) UpsertBatch(items []EvidenceItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, it := range items {
		if err := it.validate(); err != nil {
			return err
		}
	}

	batch := make([]EvidenceItem, 0, len(items))
	pos := make(map[string]int, len(items))
	for _, it := range items {
		if i, ok := pos[it.ID]; ok {
			batch[i] = it
			continue
		}
		pos[it.ID] = len(batch)
		batch = append(batch, it)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0:0]
	for _, existing := range s.items {
		if _, replaced := pos[existing.ID]; !replaced {
			kept = append(kept, existing)
		}
	}
	s.items = append(kept, batch...)
	return nil
}

// Merge seeds the store from a parse result. Mentions keep no source unless
// the parser flagged them as part of the initial complaint.
func (s *EvidenceStore) Merge(mentions []Mention) error {
	items := make([]EvidenceItem, 0, len(mentions))
	for _, m := range mentions {
		item := EvidenceItem{ID: m.ID, ChoiceID: m.ChoiceID}
		if item.ChoiceID == "" {
			item.ChoiceID = ChoicePresent
		}
		if m.Initial {
			item.Source = SourceInitial
		}
		items = append(items, item)
	}
	return s.UpsertBatch(items)
}

// Items returns a copy of the evidence in insertion order.
func (s *EvidenceStore) Items() []EvidenceItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EvidenceItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *EvidenceStore) Get(id string) (EvidenceItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return EvidenceItem{}, false
}

func (s *EvidenceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *EvidenceStore) reset() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}
