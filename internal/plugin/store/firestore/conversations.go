package firestore

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/codec"
	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/model"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
	"github.com/google/uuid"
)

func conversationQuery(f registrystore.ConversationFilter) *query.Query {
	q := query.From(collConversations)
	if !f.IncludeDiscarded {
		q.Where(query.Eq("discarded", value.Bool(false)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		q.WhereField("status", query.In, value.Strings(statuses))
	}
	return q
}

func (s *Store) ListConversations(ctx context.Context, uid string, f registrystore.ConversationFilter) (registrystore.Page[model.Conversation], error) {
	if err := requireID("uid", uid); err != nil {
		return registrystore.Page[model.Conversation]{}, err
	}
	q := conversationQuery(f).
		OrderBy("created_at", query.Descending).
		Offset(f.Offset)
	page, err := s.client.FetchPage(ctx, docstore.Users(uid), q, f.Limit)
	if err != nil {
		return registrystore.Page[model.Conversation]{}, err
	}
	now := s.now()
	return docstore.MapPage(page, func(d *docstore.Document) (model.Conversation, bool) {
		return decodeConversation(d, now), true
	}), nil
}

func (s *Store) CountConversations(ctx context.Context, uid string, f registrystore.ConversationFilter) (int64, error) {
	if err := requireID("uid", uid); err != nil {
		return 0, err
	}
	return s.client.RunAggregateCount(ctx, docstore.Users(uid), conversationQuery(f))
}

func (s *Store) GetConversation(ctx context.Context, uid, id string) (*model.Conversation, error) {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return nil, err
	}
	doc, err := s.client.Get(ctx, userDoc(uid, collConversations, id))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound("conversation", id)
	}
	c := decodeConversation(doc, s.now())
	return &c, nil
}

// SaveConversation writes the whole record. An empty ID is assigned a
// random one and zero timestamps default to now.
func (s *Store) SaveConversation(ctx context.Context, uid string, c *model.Conversation) (*model.Conversation, error) {
	if err := requireID("uid", uid); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &registrystore.ValidationError{Field: "conversation", Message: "must not be nil"}
	}
	conv := *c
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	} else if err := requireID("id", conv.ID); err != nil {
		return nil, err
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = s.now()
	}
	if conv.StartedAt.IsZero() {
		conv.StartedAt = conv.CreatedAt
	}
	if conv.FinishedAt.IsZero() {
		conv.FinishedAt = conv.CreatedAt
	}
	doc, err := s.client.Upsert(ctx, userDoc(uid, collConversations, conv.ID), encodeConversation(&conv))
	if err != nil {
		return nil, err
	}
	log.Info("Saved conversation", "uid", uid, "id", conv.ID, "segments", len(conv.TranscriptSegments))
	saved := decodeConversation(doc, s.now())
	return &saved, nil
}

func (s *Store) DeleteConversation(ctx context.Context, uid, id string) error {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, userDoc(uid, collConversations, id)); err != nil {
		return err
	}
	log.Info("Deleted conversation", "uid", uid, "id", id)
	return nil
}

// AddAppResult replaces the result stored for appID, if any, and appends
// the new one. It is a read-modify-write without a precondition, so
// concurrent writers to one conversation can lose updates.
func (s *Store) AddAppResult(ctx context.Context, uid, conversationID, appID, content string) error {
	if err := requireIDs("uid", uid, "conversation_id", conversationID); err != nil {
		return err
	}
	p := userDoc(uid, collConversations, conversationID)
	doc, err := s.client.Get(ctx, p)
	if err != nil {
		return err
	}
	if doc == nil {
		return notFound("conversation", conversationID)
	}

	var results []model.AppResult
	for _, r := range decodeAppResults(doc.Record()) {
		if r.AppID != nil && *r.AppID == appID {
			continue
		}
		results = append(results, r)
	}
	results = append(results, model.AppResult{AppID: &appID, Content: content})

	fields := value.NewFields().Set("apps_results", encodeAppResults(results))
	if _, err := s.client.Update(ctx, p, fields, "apps_results"); err != nil {
		return err
	}
	log.Info("Stored app result", "uid", uid, "conversation", conversationID, "app", appID)
	return nil
}

func encodeConversation(c *model.Conversation) *value.Fields {
	structured := value.NewFields().
		Set("title", value.String(c.Structured.Title)).
		Set("overview", value.String(c.Structured.Overview)).
		Set("emoji", value.String(c.Structured.Emoji)).
		Set("category", value.String(string(c.Structured.Category)))

	segments := make([]value.Value, len(c.TranscriptSegments))
	for i, seg := range c.TranscriptSegments {
		segments[i] = value.Map(value.NewFields().
			Set("text", value.String(seg.Text)).
			Set("speaker", value.String(seg.Speaker)).
			Set("speaker_id", value.Int(seg.SpeakerID)).
			Set("is_user", value.Bool(seg.IsUser)).
			Set("start", value.Double(seg.Start)).
			Set("end", value.Double(seg.End)))
	}

	return value.NewFields().
		Set("created_at", value.Timestamp(c.CreatedAt)).
		Set("started_at", value.Timestamp(c.StartedAt)).
		Set("finished_at", value.Timestamp(c.FinishedAt)).
		Set("source", value.String(string(c.Source))).
		Set("language", value.String(c.Language)).
		Set("status", value.String(string(c.Status))).
		Set("discarded", value.Bool(c.Discarded)).
		Set("structured", value.Map(structured)).
		Set("transcript_segments", value.Array(segments...)).
		Set("apps_results", encodeAppResults(c.AppsResults))
}

func encodeAppResults(results []model.AppResult) value.Value {
	out := make([]value.Value, len(results))
	for i, r := range results {
		f := value.NewFields()
		if r.AppID != nil {
			f.Set("app_id", value.String(*r.AppID))
		}
		f.Set("content", value.String(r.Content))
		out[i] = value.Map(f)
	}
	return value.Array(out...)
}

func decodeConversation(doc *docstore.Document, now time.Time) model.Conversation {
	r := doc.Record()
	created := r.TimeOr("created_at", now)
	c := model.Conversation{
		ID:                 doc.ID(),
		CreatedAt:          created,
		StartedAt:          r.TimeOr("started_at", created),
		FinishedAt:         r.TimeOr("finished_at", created),
		Source:             model.ParseConversationSource(r.String("source")),
		Language:           r.String("language"),
		Status:             model.ParseConversationStatus(r.String("status")),
		Discarded:          r.Bool("discarded", false),
		Structured:         model.DefaultStructured(),
		TranscriptSegments: decodeSegments(r.LegacyRecords("transcript_segments")),
		AppsResults:        decodeAppResults(r),
	}
	if st, ok := r.Record("structured"); ok {
		c.Structured = model.Structured{
			Title:    st.String("title"),
			Overview: st.String("overview"),
			Emoji:    st.StringOr("emoji", model.DefaultEmoji),
			Category: model.ParseCategory(st.String("category")),
		}
	}
	return c
}

func decodeSegments(recs []codec.Record) []model.TranscriptSegment {
	out := make([]model.TranscriptSegment, 0, len(recs))
	for _, seg := range recs {
		out = append(out, model.TranscriptSegment{
			Text:      seg.String("text"),
			Speaker:   seg.StringOr("speaker", model.DefaultSpeaker),
			SpeakerID: seg.Int("speaker_id", 0),
			IsUser:    seg.Bool("is_user", false),
			Start:     seg.Float("start", 0),
			End:       seg.Float("end", 0),
		})
	}
	return out
}

func decodeAppResults(r codec.Record) []model.AppResult {
	recs := r.Records("apps_results")
	out := make([]model.AppResult, 0, len(recs))
	for _, ar := range recs {
		out = append(out, model.AppResult{
			AppID:   ar.StringPtr("app_id"),
			Content: ar.String("content"),
		})
	}
	return out
}
