package firestore

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/ident"
	"github.com/chirino/journal-service/internal/model"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
	"github.com/google/uuid"
)

func (s *Store) ListActionItems(ctx context.Context, uid string, f registrystore.ActionItemFilter) (registrystore.Page[model.ActionItem], error) {
	if err := requireID("uid", uid); err != nil {
		return registrystore.Page[model.ActionItem]{}, err
	}
	q := query.From(collActionItems)
	if f.Completed != nil {
		q.Where(query.Eq("completed", value.Bool(*f.Completed)))
	}
	q.OrderBy("created_at", query.Descending).Offset(f.Offset)

	page, err := s.client.FetchPage(ctx, docstore.Users(uid), q, f.Limit)
	if err != nil {
		return registrystore.Page[model.ActionItem]{}, err
	}
	now := s.now()
	return docstore.MapPage(page, func(d *docstore.Document) (model.ActionItem, bool) {
		item, err := decodeActionItem(d, now)
		if err != nil {
			log.Warn("Dropping unreadable action item", "uid", uid, "err", err)
			return model.ActionItem{}, false
		}
		return item, true
	}), nil
}

func (s *Store) GetActionItem(ctx context.Context, uid, id string) (*model.ActionItem, error) {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return nil, err
	}
	doc, err := s.client.Get(ctx, userDoc(uid, collActionItems, id))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound("action item", id)
	}
	item, err := decodeActionItem(doc, s.now())
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateActionItem stores a manually entered item under a random ID.
func (s *Store) CreateActionItem(ctx context.Context, uid string, in model.NewActionItem) (*model.ActionItem, error) {
	if err := requireID("uid", uid); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, &registrystore.ValidationError{Field: "description", Message: "must not be empty"}
	}
	item := newActionItem(uuid.NewString(), in, nil, s.now())
	doc, err := s.client.Upsert(ctx, userDoc(uid, collActionItems, item.ID), encodeActionItem(&item))
	if err != nil {
		return nil, err
	}
	log.Info("Created action item", "uid", uid, "id", item.ID)
	saved, err := decodeActionItem(doc, s.now())
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateActionItem changes the fields set in u. Completing an item also
// stamps completed_at.
func (s *Store) UpdateActionItem(ctx context.Context, uid, id string, u model.ActionItemUpdate) (*model.ActionItem, error) {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return nil, err
	}
	if u.Description != nil && strings.TrimSpace(*u.Description) == "" {
		return nil, &registrystore.ValidationError{Field: "description", Message: "must not be empty"}
	}
	now := s.now()
	fields := value.NewFields().Set("updated_at", value.Timestamp(now))
	if u.Completed != nil {
		fields.Set("completed", value.Bool(*u.Completed))
		if *u.Completed {
			fields.Set("completed_at", value.Timestamp(now))
		}
	}
	if u.Description != nil {
		fields.Set("description", value.String(*u.Description))
	}
	if u.DueAt != nil {
		fields.Set("due_at", value.Timestamp(*u.DueAt))
	}

	doc, err := s.client.Update(ctx, userDoc(uid, collActionItems, id), fields, fields.Names()...)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound("action item", id)
	}
	log.Info("Updated action item", "uid", uid, "id", id, "fields", fields.Names())
	item, err := decodeActionItem(doc, now)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteActionItem(ctx context.Context, uid, id string) error {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, userDoc(uid, collActionItems, id)); err != nil {
		return err
	}
	log.Info("Deleted action item", "uid", uid, "id", id)
	return nil
}

// SaveActionItems stores items extracted from a conversation. The ID is
// derived from the description, so extracting the same item again
// updates it rather than adding a duplicate.
func (s *Store) SaveActionItems(ctx context.Context, uid, conversationID string, items []model.NewActionItem) registrystore.BatchResult {
	var res registrystore.BatchResult
	if err := requireID("uid", uid); err != nil {
		log.Warn("Skipping action item batch", "err", err)
		res.Failed = len(items)
		return res
	}
	for _, in := range items {
		if strings.TrimSpace(in.Description) == "" {
			log.Warn("Skipping empty extracted action item", "uid", uid, "conversation", conversationID)
			res.Failed++
			continue
		}
		convID := conversationID
		item := newActionItem(ident.ContentID(in.Description), in, &convID, s.now())
		if err := s.saveExtracted(ctx, userDoc(uid, collActionItems, item.ID), encodeActionItem(&item), userOwnedActionItemFields...); err != nil {
			log.Warn("Failed to save action item", "uid", uid, "id", item.ID, "err", err)
			res.Failed++
			continue
		}
		res.Saved++
	}
	log.Info("Saved extracted action items", "uid", uid, "conversation", conversationID, "saved", res.Saved, "failed", res.Failed)
	return res
}

// userOwnedActionItemFields change when the user completes an item.
var userOwnedActionItemFields = []string{"completed", "completed_at"}

func newActionItem(id string, in model.NewActionItem, conversationID *string, now time.Time) model.ActionItem {
	item := model.ActionItem{
		ID:             id,
		Description:    in.Description,
		Completed:      in.Completed,
		CreatedAt:      now,
		DueAt:          in.DueAt,
		ConversationID: conversationID,
		Source:         in.Source,
		Priority:       in.Priority,
		Metadata:       in.Metadata,
	}
	if in.Completed {
		item.CompletedAt = &now
	}
	return item
}

func encodeActionItem(a *model.ActionItem) *value.Fields {
	f := value.NewFields().
		Set("description", value.String(a.Description)).
		Set("completed", value.Bool(a.Completed)).
		Set("created_at", value.Timestamp(a.CreatedAt))
	optional := []struct {
		name string
		v    value.Value
	}{
		{"updated_at", value.OptTimestamp(a.UpdatedAt)},
		{"due_at", value.OptTimestamp(a.DueAt)},
		{"completed_at", value.OptTimestamp(a.CompletedAt)},
		{"conversation_id", value.OptString(a.ConversationID)},
		{"source", value.OptString(a.Source)},
		{"priority", value.OptString(a.Priority)},
		{"metadata", value.OptString(a.Metadata)},
	}
	for _, o := range optional {
		if !o.v.IsNull() {
			f.Set(o.name, o.v)
		}
	}
	return f
}

func decodeActionItem(doc *docstore.Document, now time.Time) (model.ActionItem, error) {
	r := doc.Record()
	desc, err := r.Require("description")
	if err != nil {
		return model.ActionItem{}, err
	}
	return model.ActionItem{
		ID:             doc.ID(),
		Description:    desc,
		Completed:      r.Bool("completed", false),
		CreatedAt:      r.TimeOr("created_at", now),
		UpdatedAt:      r.Time("updated_at"),
		DueAt:          r.Time("due_at"),
		CompletedAt:    r.Time("completed_at"),
		ConversationID: r.StringPtr("conversation_id"),
		Source:         r.StringPtr("source"),
		Priority:       r.StringPtr("priority"),
		Metadata:       r.StringPtr("metadata"),
	}, nil
}
