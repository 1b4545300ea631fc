package mediastore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Entity is the persisted video record. The orchestration core only writes
// artifact-reference fields and status flags; the record's wider lifecycle
// belongs to the upload and presentation layers.
type Entity struct {
	ID           string            `json:"id"`
	Title        string            `json:"title,omitempty"`
	Subject      string            `json:"subject,omitempty"`
	TeacherID    string            `json:"teacher_id,omitempty"`
	ClassroomID  string            `json:"classroom_id,omitempty"`
	Date         string            `json:"date,omitempty"`
	Period       int               `json:"period,omitempty"`
	DurationSec  float64           `json:"duration_seconds,omitempty"`
	FilePath     string            `json:"file_path,omitempty"`
	Status       string            `json:"status,omitempty"`
	TrimmedURL   string            `json:"trimmed_url,omitempty"`
	SubtitleURLs map[string]string `json:"subtitle_urls,omitempty"`
	DubURL       string            `json:"dub_url,omitempty"`
	NotesURL     string            `json:"notes_url,omitempty"`
	NotesPDFURL  string            `json:"notes_pdf_url,omitempty"`
	QuestionsURL string            `json:"questions_url,omitempty"`
	ManifestURL  string            `json:"manifest_url,omitempty"`
}

// EntityPath builds the store key for a video entity.
func EntityPath(id string) string {
	return "videos/" + id
}

// SaveEntity writes the full entity record.
func SaveEntity(ctx context.Context, store Store, entity *Entity) error {
	if entity == nil || entity.ID == "" {
		return fmt.Errorf("entity with id required")
	}
	doc, err := entityToDoc(entity)
	if err != nil {
		return err
	}
	return store.Set(ctx, EntityPath(entity.ID), doc)
}

// GetEntity reads a video entity; ok=false means the record is absent.
func GetEntity(ctx context.Context, store Store, id string) (*Entity, bool, error) {
	doc, ok, err := store.Get(ctx, EntityPath(id))
	if err != nil || !ok {
		return nil, false, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("encode entity %s: %w", id, err)
	}
	var entity Entity
	if err := json.Unmarshal(raw, &entity); err != nil {
		return nil, false, fmt.Errorf("decode entity %s: %w", id, err)
	}
	if entity.ID == "" {
		entity.ID = id
	}
	return &entity, true, nil
}

// UpdateEntity merges artifact-reference fields into an entity record.
func UpdateEntity(ctx context.Context, store Store, id string, fields map[string]any) error {
	if id == "" {
		return fmt.Errorf("entity id required")
	}
	return store.Update(ctx, EntityPath(id), fields)
}

func entityToDoc(entity *Entity) (map[string]any, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("encode entity %s: %w", entity.ID, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode entity %s: %w", entity.ID, err)
	}
	return doc, nil
}
