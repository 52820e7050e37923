package firestore

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/model"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
	"github.com/google/uuid"
)

const (
	// focusStatsBound is the most sessions FocusStats reads for one day.
	focusStatsBound = 1000
	topDistractions = 5
	dateLayout      = "2006-01-02"
)

func (s *Store) CreateFocusSession(ctx context.Context, uid string, in model.NewFocusSession) (*model.FocusSession, error) {
	if err := requireID("uid", uid); err != nil {
		return nil, err
	}
	if in.DurationSeconds != nil && *in.DurationSeconds < 0 {
		return nil, &registrystore.ValidationError{Field: "duration_seconds", Message: "must not be negative"}
	}
	fs := model.FocusSession{
		ID:              uuid.NewString(),
		Status:          model.ParseFocusStatus(string(in.Status)),
		AppOrSite:       in.AppOrSite,
		Description:     in.Description,
		Message:         in.Message,
		CreatedAt:       s.now(),
		DurationSeconds: in.DurationSeconds,
	}
	doc, err := s.client.Upsert(ctx, userDoc(uid, collFocusSessions, fs.ID), encodeFocusSession(&fs))
	if err != nil {
		return nil, err
	}
	log.Info("Recorded focus session", "uid", uid, "id", fs.ID, "status", fs.Status)
	saved := decodeFocusSession(doc, s.now())
	return &saved, nil
}

// dayRange parses a YYYY-MM-DD date as a UTC day. The end is the next
// midnight and is exclusive.
func dayRange(date string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, &registrystore.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	return start, start.Add(24 * time.Hour), nil
}

func (s *Store) ListFocusSessions(ctx context.Context, uid string, f registrystore.FocusFilter) (registrystore.Page[model.FocusSession], error) {
	if err := requireID("uid", uid); err != nil {
		return registrystore.Page[model.FocusSession]{}, err
	}
	q := query.From(collFocusSessions)
	if f.Date != "" {
		from, to, err := dayRange(f.Date)
		if err != nil {
			return registrystore.Page[model.FocusSession]{}, err
		}
		q.Where(query.Range("created_at", value.Timestamp(from), value.Timestamp(to))...)
	}
	q.OrderBy("created_at", query.Descending).Offset(f.Offset)

	page, err := s.client.FetchPage(ctx, docstore.Users(uid), q, f.Limit)
	if err != nil {
		return registrystore.Page[model.FocusSession]{}, err
	}
	now := s.now()
	return docstore.MapPage(page, func(d *docstore.Document) (model.FocusSession, bool) {
		return decodeFocusSession(d, now), true
	}), nil
}

func (s *Store) DeleteFocusSession(ctx context.Context, uid, id string) error {
	if err := requireIDs("uid", uid, "id", id); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, userDoc(uid, collFocusSessions, id)); err != nil {
		return err
	}
	log.Info("Deleted focus session", "uid", uid, "id", id)
	return nil
}

// FocusStats summarizes the sessions of one UTC day. Each session counts as
// one minute; distraction totals use the recorded duration or
// DefaultFocusDuration.
func (s *Store) FocusStats(ctx context.Context, uid, date string) (*model.FocusStats, error) {
	page, err := s.ListFocusSessions(ctx, uid, registrystore.FocusFilter{Limit: focusStatsBound, Date: date})
	if err != nil {
		return nil, err
	}
	if page.HasMore {
		log.Warn("Focus stats truncated", "uid", uid, "date", date, "bound", focusStatsBound)
	}

	stats := &model.FocusStats{Date: date, TopDistractions: []model.DistractionEntry{}}
	byApp := map[string]*model.DistractionEntry{}
	for _, fs := range page.Items {
		stats.SessionCount++
		if fs.Status == model.FocusFocused {
			stats.FocusedCount++
			continue
		}
		stats.DistractedCount++
		secs := int64(model.DefaultFocusDuration / time.Second)
		if fs.DurationSeconds != nil {
			secs = *fs.DurationSeconds
		}
		e, ok := byApp[fs.AppOrSite]
		if !ok {
			e = &model.DistractionEntry{AppOrSite: fs.AppOrSite}
			byApp[fs.AppOrSite] = e
		}
		e.TotalSeconds += secs
		e.Count++
	}
	stats.FocusedMinutes = stats.FocusedCount
	stats.DistractedMinutes = stats.DistractedCount

	for _, e := range byApp {
		stats.TopDistractions = append(stats.TopDistractions, *e)
	}
	sort.Slice(stats.TopDistractions, func(i, j int) bool {
		a, b := stats.TopDistractions[i], stats.TopDistractions[j]
		if a.TotalSeconds != b.TotalSeconds {
			return a.TotalSeconds > b.TotalSeconds
		}
		return a.AppOrSite < b.AppOrSite
	})
	if len(stats.TopDistractions) > topDistractions {
		stats.TopDistractions = stats.TopDistractions[:topDistractions]
	}
	return stats, nil
}

func encodeFocusSession(fs *model.FocusSession) *value.Fields {
	f := value.NewFields().
		Set("status", value.String(string(fs.Status))).
		Set("app_or_site", value.String(fs.AppOrSite)).
		Set("description", value.String(fs.Description)).
		Set("created_at", value.Timestamp(fs.CreatedAt))
	if fs.Message != nil {
		f.Set("message", value.String(*fs.Message))
	}
	if fs.DurationSeconds != nil {
		f.Set("duration_seconds", value.Int(*fs.DurationSeconds))
	}
	return f
}

func decodeFocusSession(doc *docstore.Document, now time.Time) model.FocusSession {
	r := doc.Record()
	return model.FocusSession{
		ID:              doc.ID(),
		Status:          model.ParseFocusStatus(r.String("status")),
		AppOrSite:       r.String("app_or_site"),
		Description:     r.String("description"),
		Message:         r.StringPtr("message"),
		CreatedAt:       r.TimeOr("created_at", now),
		DurationSeconds: r.IntPtr("duration_seconds"),
	}
}
