package firestore

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/model"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
)

const noSubject = "(no subject)"

func emailDoc(id string) docstore.Path { return docstore.Doc(collEmails, id) }

// CreateEmail stores an inbound email under its own ID.
func (s *Store) CreateEmail(ctx context.Context, e *model.InboundEmail) error {
	if e == nil {
		return &registrystore.ValidationError{Field: "email", Message: "must not be nil"}
	}
	if err := requireID("id", e.ID); err != nil {
		return err
	}
	received := e.ReceivedAt
	if received.IsZero() {
		received = s.now()
	}
	attachments := make([]value.Value, len(e.Attachments))
	for i, a := range e.Attachments {
		attachments[i] = value.Map(value.NewFields().
			Set("filename", value.String(a.Filename)).
			Set("content_type", value.String(a.ContentType)).
			Set("size", value.Int(a.Size)))
	}
	f := value.NewFields().
		Set("from", value.String(e.From)).
		Set("to", value.Strings(e.To)).
		Set("subject", value.String(e.Subject))
	if e.Text != nil {
		f.Set("text", value.String(*e.Text))
	}
	if e.HTML != nil {
		f.Set("html", value.String(*e.HTML))
	}
	f.Set("attachments", value.Array(attachments...)).
		Set("received_at", value.Timestamp(received)).
		Set("read", value.Bool(e.Read))

	if _, err := s.client.Upsert(ctx, emailDoc(e.ID), f); err != nil {
		return err
	}
	log.Info("Stored inbound email", "id", e.ID, "attachments", len(e.Attachments))
	return nil
}

func (s *Store) ListEmails(ctx context.Context, limit, offset int) ([]model.InboundEmail, error) {
	q := query.From(collEmails).
		OrderBy("received_at", query.Descending).
		Limit(limit).
		Offset(offset)
	docs, err := s.client.RunQuery(ctx, nil, q)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]model.InboundEmail, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeEmail(d, now))
	}
	return out, nil
}

func (s *Store) GetEmail(ctx context.Context, id string) (*model.InboundEmail, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	doc, err := s.client.Get(ctx, emailDoc(id))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound("email", id)
	}
	e := decodeEmail(doc, s.now())
	return &e, nil
}

func (s *Store) MarkEmailRead(ctx context.Context, id string, read bool) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	doc, err := s.client.Update(ctx, emailDoc(id), value.NewFields().Set("read", value.Bool(read)), "read")
	if err != nil {
		return err
	}
	if doc == nil {
		return notFound("email", id)
	}
	return nil
}

func (s *Store) DeleteEmail(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, emailDoc(id)); err != nil {
		return err
	}
	log.Info("Deleted email", "id", id)
	return nil
}

func (s *Store) CountEmails(ctx context.Context) (int64, error) {
	return s.client.RunAggregateCount(ctx, nil, query.From(collEmails))
}

func (s *Store) CountUnreadEmails(ctx context.Context) (int64, error) {
	return s.client.RunAggregateCount(ctx, nil, query.From(collEmails).Where(query.Eq("read", value.Bool(false))))
}

func decodeEmail(doc *docstore.Document, now time.Time) model.InboundEmail {
	r := doc.Record()
	e := model.InboundEmail{
		ID:          doc.ID(),
		From:        r.String("from"),
		To:          r.Strings("to"),
		Subject:     r.StringOr("subject", noSubject),
		Text:        r.StringPtr("text"),
		HTML:        r.StringPtr("html"),
		Attachments: []model.EmailAttachment{},
		ReceivedAt:  r.TimeOr("received_at", now),
		Read:        r.Bool("read", false),
	}
	if e.To == nil {
		e.To = []string{}
	}
	for _, a := range r.Records("attachments") {
		e.Attachments = append(e.Attachments, model.EmailAttachment{
			Filename:    a.StringOr("filename", "attachment"),
			ContentType: a.StringOr("content_type", "application/octet-stream"),
			Size:        a.Int("size", 0),
		})
	}
	return e
}
