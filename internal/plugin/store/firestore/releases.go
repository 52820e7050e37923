package firestore

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/query"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/model"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
)

// releaseFetchBound caps how many releases the update feed reads.
const releaseFetchBound = 500

// ListDesktopReleases returns every release, newest build first. Entries
// without a version are skipped.
func (s *Store) ListDesktopReleases(ctx context.Context) ([]model.DesktopRelease, error) {
	docs, err := s.client.RunQuery(ctx, nil, query.From(collReleases).Limit(releaseFetchBound))
	if err != nil {
		return nil, err
	}
	out := make([]model.DesktopRelease, 0, len(docs))
	for _, d := range docs {
		r := decodeRelease(d)
		if r.Version == "" {
			log.Warn("Skipping release without version", "id", d.ID())
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BuildNumber > out[j].BuildNumber })
	return out, nil
}

// CreateDesktopRelease stores r under its ReleaseID, replacing any release
// with the same version and build.
func (s *Store) CreateDesktopRelease(ctx context.Context, r *model.DesktopRelease) (string, error) {
	if r == nil {
		return "", &registrystore.ValidationError{Field: "release", Message: "must not be nil"}
	}
	if strings.TrimSpace(r.Version) == "" {
		return "", &registrystore.ValidationError{Field: "version", Message: "must not be empty"}
	}
	if r.BuildNumber < 0 {
		return "", &registrystore.ValidationError{Field: "build_number", Message: "must not be negative"}
	}
	id := r.ReleaseID()
	if err := requireID("version", id); err != nil {
		return "", err
	}
	f := value.NewFields().
		Set("version", value.String(r.Version)).
		Set("build_number", value.Int(r.BuildNumber)).
		Set("download_url", value.String(r.DownloadURL)).
		Set("ed_signature", value.String(r.EdSignature)).
		Set("published_at", value.String(r.PublishedAt)).
		Set("changelog", value.Strings(r.Changelog)).
		Set("is_live", value.Bool(r.IsLive)).
		Set("is_critical", value.Bool(r.IsCritical))
	if _, err := s.client.Upsert(ctx, docstore.Doc(collReleases, id), f); err != nil {
		return "", err
	}
	log.Info("Created desktop release", "id", id, "live", r.IsLive)
	return id, nil
}

func decodeRelease(doc *docstore.Document) model.DesktopRelease {
	r := doc.Record()
	out := model.DesktopRelease{
		Version:     r.String("version"),
		BuildNumber: r.Int("build_number", 0),
		DownloadURL: r.String("download_url"),
		EdSignature: r.String("ed_signature"),
		PublishedAt: r.String("published_at"),
		Changelog:   r.Strings("changelog"),
		IsLive:      r.Bool("is_live", false),
		IsCritical:  r.Bool("is_critical", false),
	}
	if out.Changelog == nil {
		out.Changelog = []string{}
	}
	return out
}
