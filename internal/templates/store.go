package templates

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/marathon/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=templates_test

const (
	megabyte = 1024 * 1024
	// entries are invalidated on Register, the expiry only bounds staleness
	// for templates replaced by another instance
	templateCacheExpire = 5 * 60 // seconds
)

type templatesRepo interface {
	Upsert(ctx context.Context, t Template) (int, error)
	Get(ctx context.Context, templateType Type) (*Template, error)
	List(ctx context.Context) ([]Template, error)
}

// Store keeps at most one template per type, with a read-through cache in front of the repo.
type Store struct {
	repo  templatesRepo
	cache *freecache.Cache
}

func NewStore(repo templatesRepo, cacheSizeMB int) *Store {
	if cacheSizeMB <= 0 {
		cacheSizeMB = 1
	}
	return &Store{
		repo:  repo,
		cache: freecache.NewCache(cacheSizeMB * megabyte),
	}
}

func cacheKey(templateType Type) []byte {
	return []byte("template::" + string(templateType))
}

// Register validates the template and replaces any existing one of the same type.
// The returned template carries the stored version.
func (s *Store) Register(ctx context.Context, t Template) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.templates.register")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := t.Validate(); err != nil {
		return nil, err
	}

	version, err := s.repo.Upsert(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("register template %s: %w", t.Type, err)
	}
	t.Version = version

	s.cache.Del(cacheKey(t.Type))
	log.Debugf("template %s registered, version %d", t.Type, version)

	return &t, nil
}

func (s *Store) Get(ctx context.Context, templateType Type) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.templates.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	key := cacheKey(templateType)
	if cached, err := s.cache.Get(key); err == nil {
		t := &Template{}
		if err := json.Unmarshal(cached, t); err != nil {
			log.Errorf("unmarshal cached template %s: %s", templateType, err)
		} else {
			return t, nil
		}
	}

	t, err := s.repo.Get(ctx, templateType)
	if err != nil {
		return nil, err
	}

	tBytes, err := json.Marshal(t)
	if err != nil {
		log.Errorf("marshal template %s for cache: %s", templateType, err)
		return t, nil
	}
	if err := s.cache.Set(key, tBytes, templateCacheExpire); err != nil {
		log.Errorf("set template cache for %s: %s", templateType, err)
	}

	return t, nil
}

func (s *Store) List(ctx context.Context) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.templates.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	return s.repo.List(ctx)
}

// Preview renders the stored template of the given type with caller supplied bindings.
func (s *Store) Preview(ctx context.Context, templateType Type, bindings map[string]string) (*Rendered, error) {
	t, err := s.Get(ctx, templateType)
	if err != nil {
		return nil, err
	}
	return Render(*t, bindings)
}
