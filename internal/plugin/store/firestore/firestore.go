// Package firestore implements the journal store on the Firestore REST API.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/chirino/journal-service/internal/config"
	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/auth"
	"github.com/chirino/journal-service/internal/docstore/value"
	registrycache "github.com/chirino/journal-service/internal/registry/cache"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name:   "firestore",
		Loader: load,
	})
}

const (
	collConversations = "conversations"
	collMemories      = "memories"
	collActionItems   = "action_items"
	collFocusSessions = "focus_sessions"
	collEnabledApps   = "enabled_plugins"
	collApps          = "plugins_data"
	collReviews       = "reviews"
	collEmails        = "emails"
	collAdvice        = "advice"
	collReleases      = "desktop_releases"
)

func load(ctx context.Context) (registrystore.JournalStore, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, errors.New("firestore: no config in context")
	}
	tokens := auth.FromContext(ctx)
	if tokens == nil {
		m, err := auth.NewManagerFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("firestore: credentials: %w", err)
		}
		tokens = m
	}
	project, err := cfg.ResolvedProjectID()
	if err != nil {
		return nil, err
	}
	client, err := docstore.New(docstore.Options{
		Endpoint:       cfg.ResolvedEndpoint(),
		ProjectID:      project,
		DatabaseID:     cfg.DatabaseID,
		Tokens:         tokens,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	return New(client, registrycache.FromContext(ctx), cfg.AppCatalogTTL), nil
}

// Store is the Firestore-backed JournalStore.
type Store struct {
	client   *docstore.Client
	catalog  registrycache.AppCatalogCache
	cacheTTL time.Duration
	now      func() time.Time
}

var _ registrystore.JournalStore = (*Store)(nil)

// New returns a Store. A nil catalog cache disables app catalog caching.
func New(client *docstore.Client, catalog registrycache.AppCatalogCache, cacheTTL time.Duration) *Store {
	return &Store{
		client:   client,
		catalog:  catalog,
		cacheTTL: cacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// requireID rejects identifiers that cannot be used as a path segment.
func requireID(field, id string) error {
	if id == "" {
		return &registrystore.ValidationError{Field: field, Message: "must not be empty"}
	}
	if strings.Contains(id, "/") {
		return &registrystore.ValidationError{Field: field, Message: "must not contain '/'"}
	}
	return nil
}

func requireIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := requireID(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func userDoc(uid, collection, id string) docstore.Path {
	return docstore.Users(uid).Child(collection, id)
}

func notFound(resource, id string) error {
	return &registrystore.NotFoundError{Resource: resource, ID: id}
}

// saveExtracted writes an extraction result. An existing document keeps its
// userOwned fields; a new one is created with every field.
func (s *Store) saveExtracted(ctx context.Context, p docstore.Path, fields *value.Fields, userOwned ...string) error {
	update := value.NewFields()
	for _, name := range fields.Names() {
		if slices.Contains(userOwned, name) {
			continue
		}
		v, _ := fields.Get(name)
		update.Set(name, v)
	}
	doc, err := s.client.Update(ctx, p, update)
	if err != nil || doc != nil {
		return err
	}
	_, err = s.client.Upsert(ctx, p, fields)
	return err
}
