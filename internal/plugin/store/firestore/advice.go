package firestore

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/model"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
	"github.com/google/uuid"
)

// markReadBound is the most advice MarkAllAdviceRead changes in one call.
const markReadBound = 1000

func (s *Store) ListAdvice(ctx context.Context, uid string, f registrystore.AdviceFilter) (registrystore.Page[model.Advice], error) {
	if err := requireID("uid", uid); err != nil {
		return registrystore.Page[model.Advice]{}, err
	}
	q := query.From(collAdvice)
	if !f.IncludeDismissed {
		q.Where(query.Eq("is_dismissed", value.Bool(false)))
	}
	if f.Category != "" {
		q.Where(query.Eq("category", value.String(f.Category)))
	}
	q.OrderBy("created_at", query.Descending).Offset(f.Offset)

	page, err := s.client.FetchPage(ctx, docstore.Users(uid), q, f.Limit)
	if err != nil {
		return registrystore.Page[model.Advice]{}, err
	}
	now := s.now()
	return docstore.MapPage(page, func(d *docstore.Document) (model.Advice, bool) {
		return decodeAdvice(d, now), true
	}), nil
}

func (s *Store) GetAdvice(ctx context.Context, uid, id string) (*model.Advice, error) {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return nil, err
	}
	doc, err := s.client.Get(ctx, userDoc(uid, collAdvice, id))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound("advice", id)
	}
	a := decodeAdvice(doc, s.now())
	return &a, nil
}

// CreateAdvice stores new, unread advice under a random ID.
func (s *Store) CreateAdvice(ctx context.Context, uid string, in model.NewAdvice) (*model.Advice, error) {
	if err := requireID("uid", uid); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, &registrystore.ValidationError{Field: "content", Message: "must not be empty"}
	}
	confidence := model.DefaultAdviceConfidence
	if in.Confidence != nil {
		confidence = *in.Confidence
	}
	if confidence < 0 || confidence > 1 {
		return nil, &registrystore.ValidationError{Field: "confidence", Message: "must be between 0 and 1"}
	}

	id := uuid.NewString()
	f := value.NewFields().
		Set("content", value.String(in.Content)).
		Set("category", value.String(string(model.ParseAdviceCategory(string(in.Category))))).
		Set("confidence", value.Double(confidence)).
		Set("is_read", value.Bool(false)).
		Set("is_dismissed", value.Bool(false)).
		Set("created_at", value.Timestamp(s.now()))
	optional := []struct {
		name string
		v    *string
	}{
		{"reasoning", in.Reasoning},
		{"source_app", in.SourceApp},
		{"context_summary", in.ContextSummary},
		{"current_activity", in.CurrentActivity},
	}
	for _, o := range optional {
		if o.v != nil {
			f.Set(o.name, value.String(*o.v))
		}
	}

	doc, err := s.client.Upsert(ctx, userDoc(uid, collAdvice, id), f)
	if err != nil {
		return nil, err
	}
	log.Info("Created advice", "uid", uid, "id", id)
	a := decodeAdvice(doc, s.now())
	return &a, nil
}

func (s *Store) UpdateAdvice(ctx context.Context, uid, id string, u model.AdviceUpdate) (*model.Advice, error) {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return nil, err
	}
	now := s.now()
	fields := value.NewFields().Set("updated_at", value.Timestamp(now))
	if u.IsRead != nil {
		fields.Set("is_read", value.Bool(*u.IsRead))
	}
	if u.IsDismissed != nil {
		fields.Set("is_dismissed", value.Bool(*u.IsDismissed))
	}
	doc, err := s.client.Update(ctx, userDoc(uid, collAdvice, id), fields)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound("advice", id)
	}
	log.Info("Updated advice", "uid", uid, "id", id, "fields", fields.Names())
	a := decodeAdvice(doc, now)
	return &a, nil
}

func (s *Store) DeleteAdvice(ctx context.Context, uid, id string) error {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, userDoc(uid, collAdvice, id)); err != nil {
		return err
	}
	log.Info("Deleted advice", "uid", uid, "id", id)
	return nil
}

// MarkAllAdviceRead updates each unread item one by one. Items that fail to
// update are logged and not counted.
func (s *Store) MarkAllAdviceRead(ctx context.Context, uid string) (int, error) {
	if err := requireID("uid", uid); err != nil {
		return 0, err
	}
	q := query.From(collAdvice).
		Where(query.Eq("is_dismissed", value.Bool(false)), query.Eq("is_read", value.Bool(false))).
		Select("is_read").
		Limit(markReadBound)
	docs, err := s.client.RunQuery(ctx, docstore.Users(uid), q)
	if err != nil {
		return 0, err
	}
	read := true
	marked := 0
	for _, d := range docs {
		if _, err := s.UpdateAdvice(ctx, uid, d.ID(), model.AdviceUpdate{IsRead: &read}); err != nil {
			log.Warn("Failed to mark advice read", "uid", uid, "id", d.ID(), "err", err)
			continue
		}
		marked++
	}
	if len(docs) == markReadBound {
		log.Warn("Mark all advice read truncated", "uid", uid, "bound", markReadBound)
	}
	log.Info("Marked advice read", "uid", uid, "count", marked)
	return marked, nil
}

func decodeAdvice(doc *docstore.Document, now time.Time) model.Advice {
	r := doc.Record()
	return model.Advice{
		ID:              doc.ID(),
		Content:         r.String("content"),
		Category:        model.ParseAdviceCategory(r.String("category")),
		Reasoning:       r.StringPtr("reasoning"),
		SourceApp:       r.StringPtr("source_app"),
		Confidence:      r.Float("confidence", model.DefaultAdviceConfidence),
		ContextSummary:  r.StringPtr("context_summary"),
		CurrentActivity: r.StringPtr("current_activity"),
		CreatedAt:       r.TimeOr("created_at", now),
		UpdatedAt:       r.Time("updated_at"),
		IsRead:          r.Bool("is_read", false),
		IsDismissed:     r.Bool("is_dismissed", false),
	}
}
