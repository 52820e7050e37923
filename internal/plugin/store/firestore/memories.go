package firestore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/ident"
	"github.com/chirino/journal-service/internal/model"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
	"golang.org/x/sync/errgroup"
)

// enrichConcurrency bounds parallel conversation reads during enrichment.
const enrichConcurrency = 10

// userOwnedMemoryFields are set by the user after extraction. Re-extracting
// a memory must leave them alone.
var userOwnedMemoryFields = []string{"reviewed", "user_review", "visibility", "manually_added"}

// ListMemories returns the highest scored memories first. Memories the user
// rejected are dropped, and Source is filled in from linked conversations.
func (s *Store) ListMemories(ctx context.Context, uid string, limit int) ([]model.Memory, error) {
	if err := requireID("uid", uid); err != nil {
		return nil, err
	}
	q := query.From(collMemories).
		OrderBy("scoring", query.Descending).
		OrderBy("created_at", query.Descending).
		Limit(limit)

	now := s.now()
	var out []model.Memory
	err := s.client.Stream(ctx, docstore.Users(uid), q, func(d *docstore.Document) error {
		m, err := decodeMemory(d, now)
		if err != nil {
			log.Warn("Dropping unreadable memory", "uid", uid, "err", err)
			return nil
		}
		if m.UserReview != nil && !*m.UserReview {
			return nil
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.enrichSources(ctx, uid, out)
	return out, nil
}

// enrichSources sets Source on memories from their linked conversation.
// Lookups that fail leave Source unset.
func (s *Store) enrichSources(ctx context.Context, uid string, memories []model.Memory) {
	ids := map[string]struct{}{}
	for _, m := range memories {
		if m.ConversationID != nil && *m.ConversationID != "" && !strings.Contains(*m.ConversationID, "/") {
			ids[*m.ConversationID] = struct{}{}
		}
	}
	if len(ids) == 0 {
		return
	}

	var mu sync.Mutex
	sources := make(map[string]model.ConversationSource, len(ids))
	var g errgroup.Group
	g.SetLimit(enrichConcurrency)
	for id := range ids {
		g.Go(func() error {
			doc, err := s.client.Get(ctx, userDoc(uid, collConversations, id))
			if err != nil {
				log.Warn("Failed to load conversation for memory source", "uid", uid, "conversation", id, "err", err)
				return nil
			}
			if doc == nil {
				return nil
			}
			src := model.ParseConversationSource(doc.Record().String("source"))
			mu.Lock()
			sources[id] = src
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i := range memories {
		if memories[i].ConversationID == nil {
			continue
		}
		if src, ok := sources[*memories[i].ConversationID]; ok {
			memories[i].Source = &src
		}
	}
}

func (s *Store) GetMemory(ctx context.Context, uid, id string) (*model.Memory, error) {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return nil, err
	}
	doc, err := s.client.Get(ctx, userDoc(uid, collMemories, id))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound("memory", id)
	}
	m, err := decodeMemory(doc, s.now())
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateManualMemory stores a memory the user entered. Its ID is derived
// from the content, so entering the same text twice updates one memory.
func (s *Store) CreateManualMemory(ctx context.Context, uid, content string, visibility model.MemoryVisibility) (*model.Memory, error) {
	if err := requireID("uid", uid); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, &registrystore.ValidationError{Field: "content", Message: "must not be empty"}
	}
	now := s.now()
	approved := true
	scoring := ident.ComputeScoring(model.MemoryCategoryManual, now, true)
	m := model.Memory{
		ID:            ident.ContentID(content),
		Content:       content,
		Category:      model.MemoryCategoryManual,
		CreatedAt:     now,
		UpdatedAt:     &now,
		Reviewed:      true,
		UserReview:    &approved,
		Visibility:    model.ParseMemoryVisibility(string(visibility)),
		ManuallyAdded: true,
		Scoring:       &scoring,
	}
	doc, err := s.client.Upsert(ctx, userDoc(uid, collMemories, m.ID), encodeMemory(&m))
	if err != nil {
		return nil, err
	}
	log.Info("Created manual memory", "uid", uid, "id", m.ID)
	saved, err := decodeMemory(doc, now)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *Store) UpdateMemoryContent(ctx context.Context, uid, id, content string) error {
	if strings.TrimSpace(content) == "" {
		return &registrystore.ValidationError{Field: "content", Message: "must not be empty"}
	}
	return s.updateMemory(ctx, uid, id, value.NewFields().Set("content", value.String(content)))
}

func (s *Store) UpdateMemoryVisibility(ctx context.Context, uid, id string, visibility model.MemoryVisibility) error {
	v := model.ParseMemoryVisibility(string(visibility))
	return s.updateMemory(ctx, uid, id, value.NewFields().Set("visibility", value.String(string(v))))
}

// ReviewMemory records the user's verdict. A rejected memory stays stored
// but is hidden from ListMemories.
func (s *Store) ReviewMemory(ctx context.Context, uid, id string, approve bool) error {
	return s.updateMemory(ctx, uid, id, value.NewFields().
		Set("reviewed", value.Bool(true)).
		Set("user_review", value.Bool(approve)))
}

// updateMemory writes fields plus updated_at with a matching mask.
func (s *Store) updateMemory(ctx context.Context, uid, id string, fields *value.Fields) error {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return err
	}
	fields.Set("updated_at", value.Timestamp(s.now()))
	doc, err := s.client.Update(ctx, userDoc(uid, collMemories, id), fields, fields.Names()...)
	if err != nil {
		return err
	}
	if doc == nil {
		return notFound("memory", id)
	}
	log.Info("Updated memory", "uid", uid, "id", id, "fields", fields.Names())
	return nil
}

func (s *Store) DeleteMemory(ctx context.Context, uid, id string) error {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, userDoc(uid, collMemories, id)); err != nil {
		return err
	}
	log.Info("Deleted memory", "uid", uid, "id", id)
	return nil
}

// SaveMemories stores memories extracted from a conversation. Each is keyed
// by its content, and saving one again keeps the user's review and
// visibility. Failures are logged and counted, never returned.
func (s *Store) SaveMemories(ctx context.Context, uid, conversationID string, memories []model.ExtractedMemory) registrystore.BatchResult {
	var res registrystore.BatchResult
	if err := requireID("uid", uid); err != nil {
		log.Warn("Skipping memory batch", "err", err)
		res.Failed = len(memories)
		return res
	}
	for _, em := range memories {
		if strings.TrimSpace(em.Content) == "" {
			log.Warn("Skipping empty extracted memory", "uid", uid, "conversation", conversationID)
			res.Failed++
			continue
		}
		now := s.now()
		category := model.ParseMemoryCategory(string(em.Category))
		scoring := ident.ComputeScoring(category, now, false)
		convID := conversationID
		m := model.Memory{
			ID:             ident.ContentID(em.Content),
			Content:        em.Content,
			Category:       category,
			CreatedAt:      now,
			UpdatedAt:      &now,
			ConversationID: &convID,
			Visibility:     model.VisibilityPrivate,
			Scoring:        &scoring,
		}
		if err := s.saveExtracted(ctx, userDoc(uid, collMemories, m.ID), encodeMemory(&m), userOwnedMemoryFields...); err != nil {
			log.Warn("Failed to save memory", "uid", uid, "id", m.ID, "err", err)
			res.Failed++
			continue
		}
		res.Saved++
	}
	log.Info("Saved extracted memories", "uid", uid, "conversation", conversationID, "saved", res.Saved, "failed", res.Failed)
	return res
}

func encodeMemory(m *model.Memory) *value.Fields {
	f := value.NewFields().
		Set("content", value.String(m.Content)).
		Set("category", value.String(string(m.Category))).
		Set("created_at", value.Timestamp(m.CreatedAt))
	if m.UpdatedAt != nil {
		f.Set("updated_at", value.Timestamp(*m.UpdatedAt))
	}
	if m.ConversationID != nil {
		f.Set("conversation_id", value.String(*m.ConversationID))
	}
	f.Set("reviewed", value.Bool(m.Reviewed))
	if m.UserReview != nil {
		f.Set("user_review", value.Bool(*m.UserReview))
	}
	f.Set("visibility", value.String(string(m.Visibility))).
		Set("manually_added", value.Bool(m.ManuallyAdded))
	if m.Scoring != nil {
		f.Set("scoring", value.String(*m.Scoring))
	}
	return f
}

func decodeMemory(doc *docstore.Document, now time.Time) (model.Memory, error) {
	r := doc.Record()
	content, err := r.Require("content")
	if err != nil {
		return model.Memory{}, err
	}
	return model.Memory{
		ID:             doc.ID(),
		Content:        content,
		Category:       model.ParseMemoryCategory(r.String("category")),
		CreatedAt:      r.TimeOr("created_at", now),
		UpdatedAt:      r.Time("updated_at"),
		ConversationID: r.StringPtr("conversation_id"),
		Reviewed:       r.Bool("reviewed", false),
		UserReview:     r.BoolPtr("user_review"),
		Visibility:     model.ParseMemoryVisibility(r.String("visibility")),
		ManuallyAdded:  r.Bool("manually_added", false),
		Scoring:        r.StringPtr("scoring"),
	}, nil
}
