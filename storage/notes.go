package storage

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"tasknotes-api/domain"
)

type noteEntity struct {
	aztables.Entity
	Title         string `json:"Title"`
	Content       string `json:"Content,omitempty"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type"`
}

type noteUpdateEntity struct {
	aztables.Entity
	Title         *string `json:"Title,omitempty"`
	Content       *string `json:"Content,omitempty"`
	UpdatedAt     *int64  `json:"UpdatedAt,omitempty,string"`
	UpdatedAtType *string `json:"UpdatedAt@odata.type,omitempty"`
}

func encodeNoteEntity(userID string, n domain.Note) noteEntity {
	return noteEntity{
		Entity:        aztables.Entity{PartitionKey: userID, RowKey: n.ID},
		Title:         n.Title,
		Content:       n.Content,
		CreatedAt:     n.CreatedAt.UnixMilli(),
		CreatedAtType: edmInt64,
		UpdatedAt:     n.UpdatedAt.UnixMilli(),
		UpdatedAtType: edmInt64,
	}
}

func decodeNoteEntity(data []byte) (domain.Note, error) {
	var ent noteEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Note{}, err
	}
	return domain.Note{
		ID:        ent.RowKey,
		Title:     ent.Title,
		Content:   ent.Content,
		CreatedAt: time.UnixMilli(ent.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(ent.UpdatedAt).UTC(),
	}, nil
}

// FetchNotes retrieves all notes for the provided user, newest first.
func (s *Storage) FetchNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := s.noteTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	notes := []domain.Note{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			note, err := decodeNoteEntity(e)
			if err != nil {
				return nil, err
			}
			notes = append(notes, note)
		}
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}

// GetNote retrieves a single note owned by the user.
func (s *Storage) GetNote(ctx context.Context, userID, id string) (domain.Note, error) {
	ent, err := s.noteTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Note{}, ErrNotFound
		}
		return domain.Note{}, err
	}
	return decodeNoteEntity(ent.Value)
}

// InsertNote stores a new note for the user.
func (s *Storage) InsertNote(ctx context.Context, userID string, n domain.Note) error {
	payload, err := json.Marshal(encodeNoteEntity(userID, n))
	if err != nil {
		return err
	}
	_, err = s.noteTable.AddEntity(ctx, payload, nil)
	return err
}

// UpdateNote merges the patch into an existing note, stamps the new
// modification time and returns the refreshed note.
func (s *Storage) UpdateNote(ctx context.Context, userID, id string, patch domain.NotePatch, updatedAt time.Time) (domain.Note, error) {
	ms := updatedAt.UnixMilli()
	et := edmInt64
	upd := noteUpdateEntity{
		Entity:        aztables.Entity{PartitionKey: userID, RowKey: id},
		Title:         patch.Title,
		Content:       patch.Content,
		UpdatedAt:     &ms,
		UpdatedAtType: &et,
	}
	payload, err := json.Marshal(upd)
	if err != nil {
		return domain.Note{}, err
	}
	etag := azcore.ETagAny
	_, err = s.noteTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &etag, UpdateMode: aztables.UpdateModeMerge})
	if err != nil {
		if isNotFound(err) {
			return domain.Note{}, ErrNotFound
		}
		return domain.Note{}, err
	}
	return s.GetNote(ctx, userID, id)
}

// DeleteNote removes a note owned by the user.
func (s *Storage) DeleteNote(ctx context.Context, userID, id string) error {
	_, err := s.noteTable.DeleteEntity(ctx, userID, id, nil)
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}
