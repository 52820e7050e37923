package firestore

import (
	"context"
	"encoding/json"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/model"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
	"github.com/chirino/journal-service/internal/security"
	"golang.org/x/sync/errgroup"
)

const (
	// appFetchBound caps catalog and enabled-app reads. Listings past it
	// are not seen.
	appFetchBound = 500
	reviewsLimit  = 100

	catalogKeyPrefix = "apps:approved:"
	defaultRating    = 3.0
)

func catalogKey(category string) string { return catalogKeyPrefix + category }

// approvedApps returns the approved catalog, optionally limited to one
// category. Results are read through the catalog cache.
func (s *Store) approvedApps(ctx context.Context, category string) ([]model.App, error) {
	key := catalogKey(category)
	if s.catalog != nil {
		data, ok, err := s.catalog.Get(ctx, key)
		switch {
		case err != nil:
			security.ObserveCache(s.catalog.Name(), "error")
			log.Warn("App catalog cache read failed", "key", key, "err", err)
		case ok:
			var apps []model.App
			if err := json.Unmarshal(data, &apps); err == nil {
				security.ObserveCache(s.catalog.Name(), "hit")
				return apps, nil
			}
			security.ObserveCache(s.catalog.Name(), "error")
			log.Warn("Discarding unreadable app catalog cache entry", "key", key, "err", err)
		default:
			security.ObserveCache(s.catalog.Name(), "miss")
		}
	}

	q := query.From(collApps).Where(query.Eq("approved", value.Bool(true)))
	if category != "" {
		q.Where(query.Eq("category", value.String(category)))
	}
	q.Limit(appFetchBound)
	docs, err := s.client.RunQuery(ctx, nil, q)
	if err != nil {
		return nil, err
	}
	apps := make([]model.App, 0, len(docs))
	for _, d := range docs {
		apps = append(apps, decodeApp(d))
	}

	if s.catalog != nil {
		if data, err := json.Marshal(apps); err == nil {
			if err := s.catalog.Set(ctx, key, data, s.cacheTTL); err != nil {
				log.Warn("App catalog cache write failed", "key", key, "err", err)
			}
		}
	}
	return apps, nil
}

// evictCatalog drops the cached listings an app appears in.
func (s *Store) evictCatalog(ctx context.Context, category string) {
	if s.catalog == nil {
		return
	}
	keys := []string{catalogKey("")}
	if category != "" {
		keys = append(keys, catalogKey(category))
	}
	if err := s.catalog.Delete(ctx, keys...); err != nil {
		log.Warn("App catalog cache eviction failed", "keys", keys, "err", err)
	}
}

func (s *Store) enabledAppIDs(ctx context.Context, uid string) (map[string]bool, error) {
	docs, err := s.client.RunQuery(ctx, docstore.Users(uid), query.From(collEnabledApps).Limit(appFetchBound))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(docs))
	for _, d := range docs {
		ids[d.ID()] = true
	}
	return ids, nil
}

// catalogSummaries returns the approved apps in category with the user's
// enabled flags set.
func (s *Store) catalogSummaries(ctx context.Context, uid, category string) ([]model.AppSummary, error) {
	if err := requireID("uid", uid); err != nil {
		return nil, err
	}
	apps, err := s.approvedApps(ctx, category)
	if err != nil {
		return nil, err
	}
	enabled, err := s.enabledAppIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]model.AppSummary, len(apps))
	for i := range apps {
		apps[i].Enabled = enabled[apps[i].ID]
		out[i] = apps[i].Summary()
	}
	return out, nil
}

func byInstalls(a, b model.AppSummary) bool {
	if a.Installs != b.Installs {
		return a.Installs > b.Installs
	}
	return a.ID < b.ID
}

func (s *Store) ListApps(ctx context.Context, uid string, f registrystore.AppFilter) (registrystore.Page[model.AppSummary], error) {
	apps, err := s.catalogSummaries(ctx, uid, f.Category)
	if err != nil {
		return registrystore.Page[model.AppSummary]{}, err
	}
	var keep func(model.AppSummary) bool
	if f.Capability != "" {
		keep = func(a model.AppSummary) bool { return slices.Contains(a.Capabilities, f.Capability) }
	}
	return docstore.InMemory(apps, keep, byInstalls, f.Offset, f.Limit), nil
}

// PopularApps ranks twice limit of the most installed apps by rating,
// rating count and installs.
func (s *Store) PopularApps(ctx context.Context, uid string, limit int) ([]model.AppSummary, error) {
	if limit <= 0 {
		return nil, &registrystore.ValidationError{Field: "limit", Message: "must be positive"}
	}
	page, err := s.ListApps(ctx, uid, registrystore.AppFilter{Limit: 2 * limit})
	if err != nil {
		return nil, err
	}
	apps := page.Items
	sort.SliceStable(apps, func(i, j int) bool { return popularity(apps[i]) > popularity(apps[j]) })
	if len(apps) > limit {
		apps = apps[:limit]
	}
	return apps, nil
}

func popularity(a model.AppSummary) float64 {
	rating := defaultRating
	if a.RatingAvg != nil {
		rating = *a.RatingAvg
	}
	return math.Pow(rating/5, 2) *
		math.Log(1+float64(a.RatingCount)) *
		math.Sqrt(math.Log(1+float64(a.Installs)))
}

func (s *Store) SearchApps(ctx context.Context, uid string, q registrystore.AppSearch) (registrystore.Page[model.AppSummary], error) {
	apps, err := s.catalogSummaries(ctx, uid, q.Category)
	if err != nil {
		return registrystore.Page[model.AppSummary]{}, err
	}
	needle := strings.ToLower(strings.TrimSpace(q.Query))
	keep := func(a model.AppSummary) bool {
		if q.Capability != "" && !slices.Contains(a.Capabilities, q.Capability) {
			return false
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(a.Name), needle) &&
			!strings.Contains(strings.ToLower(a.Description), needle) {
			return false
		}
		if q.MinRating > 0 {
			rating := 0.0
			if a.RatingAvg != nil {
				rating = *a.RatingAvg
			}
			if rating < q.MinRating {
				return false
			}
		}
		return !q.InstalledOnly || a.Enabled
	}
	return docstore.InMemory(apps, keep, byInstalls, q.Offset, q.Limit), nil
}

func (s *Store) GetApp(ctx context.Context, uid, appID string) (*model.App, error) {
	if err := requireIDs("uid", uid, "app_id", appID); err != nil {
		return nil, err
	}
	app, err := s.loadApp(ctx, appID)
	if err != nil {
		return nil, err
	}
	enabled, err := s.client.Get(ctx, userDoc(uid, collEnabledApps, appID))
	if err != nil {
		return nil, err
	}
	app.Enabled = enabled != nil
	return app, nil
}

func (s *Store) loadApp(ctx context.Context, appID string) (*model.App, error) {
	doc, err := s.client.Get(ctx, docstore.Doc(collApps, appID))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound("app", appID)
	}
	app := decodeApp(doc)
	return &app, nil
}

// EnabledApps returns the user's enabled apps. Enabled entries whose app
// no longer exists or cannot be read are skipped.
func (s *Store) EnabledApps(ctx context.Context, uid string) ([]model.AppSummary, error) {
	if err := requireID("uid", uid); err != nil {
		return nil, err
	}
	ids, err := s.enabledAppIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	found := make([]*model.App, len(sorted))
	var g errgroup.Group
	g.SetLimit(enrichConcurrency)
	for i, id := range sorted {
		g.Go(func() error {
			app, err := s.loadApp(ctx, id)
			if registrystore.IsNotFound(err) {
				return nil
			}
			if err != nil {
				log.Warn("Skipping enabled app", "uid", uid, "app", id, "err", err)
				return nil
			}
			found[i] = app
			return nil
		})
	}
	_ = g.Wait()

	out := make([]model.AppSummary, 0, len(found))
	for _, app := range found {
		if app == nil {
			continue
		}
		app.Enabled = true
		out = append(out, app.Summary())
	}
	return out, nil
}

// EnableApp records the app as enabled for the user and bumps its install
// count. The increment is a read-modify-write without a precondition.
func (s *Store) EnableApp(ctx context.Context, uid, appID string) error {
	if err := requireIDs("uid", uid, "app_id", appID); err != nil {
		return err
	}
	app, err := s.loadApp(ctx, appID)
	if err != nil {
		return err
	}
	enabled := value.NewFields().
		Set("app_id", value.String(appID)).
		Set("enabled_at", value.Timestamp(s.now()))
	if _, err := s.client.Upsert(ctx, userDoc(uid, collEnabledApps, appID), enabled); err != nil {
		return err
	}

	installs := value.NewFields().Set("installs", value.Int(app.Installs+1))
	if _, err := s.client.Update(ctx, docstore.Doc(collApps, appID), installs, "installs"); err != nil {
		return err
	}
	s.evictCatalog(ctx, app.Category)
	log.Info("Enabled app", "uid", uid, "app", appID, "installs", app.Installs+1)
	return nil
}

func (s *Store) DisableApp(ctx context.Context, uid, appID string) error {
	if err := requireIDs("uid", uid, "app_id", appID); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, userDoc(uid, collEnabledApps, appID)); err != nil {
		return err
	}
	log.Info("Disabled app", "uid", uid, "app", appID)
	return nil
}

func (s *Store) AppReviews(ctx context.Context, appID string) ([]model.AppReview, error) {
	if err := requireID("app_id", appID); err != nil {
		return nil, err
	}
	q := query.From(collReviews).OrderBy("rated_at", query.Descending).Limit(reviewsLimit)
	docs, err := s.client.RunQuery(ctx, docstore.Doc(collApps, appID), q)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]model.AppReview, 0, len(docs))
	for _, d := range docs {
		r := d.Record()
		out = append(out, model.AppReview{
			UID:     d.ID(),
			Score:   r.Int("score", 0),
			Review:  r.String("review"),
			RatedAt: r.TimeOr("rated_at", now),
		})
	}
	return out, nil
}

// SubmitAppReview stores the user's review, replacing an earlier one, and
// recomputes the app's rating from the latest reviews.
func (s *Store) SubmitAppReview(ctx context.Context, uid, appID string, score int, review string) (*model.AppReview, error) {
	if err := requireIDs("uid", uid, "app_id", appID); err != nil {
		return nil, err
	}
	if score < 1 || score > 5 {
		return nil, &registrystore.ValidationError{Field: "score", Message: "must be between 1 and 5"}
	}
	app, err := s.loadApp(ctx, appID)
	if err != nil {
		return nil, err
	}

	rv := model.AppReview{UID: uid, Score: int64(score), Review: review, RatedAt: s.now()}
	fields := value.NewFields().
		Set("uid", value.String(uid)).
		Set("score", value.Int(rv.Score)).
		Set("review", value.String(review)).
		Set("rated_at", value.Timestamp(rv.RatedAt))
	if _, err := s.client.Upsert(ctx, docstore.Doc(collApps, appID).Child(collReviews, uid), fields); err != nil {
		return nil, err
	}

	reviews, err := s.AppReviews(ctx, appID)
	if err != nil {
		return nil, err
	}
	if len(reviews) > 0 {
		var total int64
		for _, r := range reviews {
			total += r.Score
		}
		avg := float64(total) / float64(len(reviews))
		rating := value.NewFields().
			Set("rating_avg", value.Double(avg)).
			Set("rating_count", value.Int(int64(len(reviews))))
		if _, err := s.client.Update(ctx, docstore.Doc(collApps, appID), rating, "rating_avg", "rating_count"); err != nil {
			return nil, err
		}
	}
	s.evictCatalog(ctx, app.Category)
	log.Info("Stored app review", "uid", uid, "app", appID, "score", score)
	return &rv, nil
}

func decodeApp(doc *docstore.Document) model.App {
	r := doc.Record()
	return model.App{
		ID:            doc.ID(),
		Name:          r.String("name"),
		Description:   r.String("description"),
		Image:         r.String("image"),
		Category:      r.StringOr("category", "other"),
		Author:        r.String("author"),
		Email:         r.StringPtr("email"),
		Capabilities:  r.Strings("capabilities"),
		UID:           r.StringPtr("uid"),
		Approved:      r.Bool("approved", false),
		Private:       r.Bool("private", false),
		Status:        model.ParseAppStatus(r.String("status")),
		ChatPrompt:    r.StringPtr("chat_prompt"),
		MemoryPrompt:  r.StringPtr("memory_prompt"),
		PersonaPrompt: r.StringPtr("persona_prompt"),
		Installs:      r.Int("installs", 0),
		RatingAvg:     r.FloatPtr("rating_avg"),
		RatingCount:   r.Int("rating_count", 0),
		IsPaid:        r.Bool("is_paid", false),
		Price:         r.FloatPtr("price"),
		PaymentPlan:   r.StringPtr("payment_plan"),
		Username:      r.StringPtr("username"),
		Twitter:       r.StringPtr("twitter"),
		CreatedAt:     r.Time("created_at"),
	}
}
