package application

import (
	"context"
	"time"

	"github.com/viralforge/dashboard-bff/internal/domain"
	"github.com/viralforge/dashboard-bff/internal/ports"
)

const (
	defaultServiceName = "Dashboard-BFF"
	defaultFanoutLimit = 4
)

type Config struct {
	ServiceName string
	// FanoutLimit caps concurrent backend calls made while composing one view.
	FanoutLimit int
}

type Service struct {
	cfg Config

	router   ports.ServiceRouter
	cache    ports.CacheReader
	sections ports.SectionObserver
	nowFn    func() time.Time
}

type Dependencies struct {
	Config Config

	Router   ports.ServiceRouter
	Cache    ports.CacheReader
	Sections ports.SectionObserver
	Clock    func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	if cfg.FanoutLimit <= 0 {
		cfg.FanoutLimit = defaultFanoutLimit
	}
	cache := deps.Cache
	if cache == nil {
		cache = noCache{}
	}
	nowFn := deps.Clock
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		cfg:      cfg,
		router:   deps.Router,
		cache:    cache,
		sections: deps.Sections,
		nowFn:    nowFn,
	}
}

// WriterRoles may create, update, upload and generate. Reads only need an
// identity.
func WriterRoles() []domain.Role { return []domain.Role{domain.RoleEditor, domain.RoleAdmin} }

// AdminRoles may delete, read raw cache hashes and see the admin panel.
func AdminRoles() []domain.Role { return []domain.Role{domain.RoleAdmin} }

type noCache struct{}

func (noCache) ReadJSON(context.Context, string, any) bool { return false }

func (noCache) ReadHash(context.Context, string) (map[string]string, bool) { return nil, false }
