package catalogservice

import (
	"log/slog"
	"time"

	"paidvote/contexts/awards-voting/catalog-service/adapters/cache"
	httpadapter "paidvote/contexts/awards-voting/catalog-service/adapters/http"
	"paidvote/contexts/awards-voting/catalog-service/adapters/memory"
	"paidvote/contexts/awards-voting/catalog-service/application/commands"
	"paidvote/contexts/awards-voting/catalog-service/application/queries"
	"paidvote/contexts/awards-voting/catalog-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Catalog commands.CatalogUseCase
	Cache   *cache.ListingCache
	Store   *memory.Repository
}

type Dependencies struct {
	Repo      ports.CatalogRepository
	Clock     ports.Clock
	CacheSize int
	CacheTTL  time.Duration
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	listingCache := cache.NewListingCache(deps.CacheSize, deps.CacheTTL, deps.Logger)
	catalog := commands.CatalogUseCase{
		Repo:   deps.Repo,
		Cache:  listingCache,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return Module{
		Handler: httpadapter.Handler{
			Catalog:  catalog,
			Queries:  queries.CatalogQueries{Repo: deps.Repo, Cache: listingCache},
			CacheTTL: ttl,
			Logger:   deps.Logger,
		},
		Catalog: catalog,
		Cache:   listingCache,
	}
}

// NewInMemoryModule keeps the catalog in process memory. counts supplies live
// vote counters from a ledger in the same process, if any.
func NewInMemoryModule(counts memory.VoteCountSource, cacheTTL time.Duration, logger *slog.Logger) Module {
	store := memory.NewRepository(counts)
	module := NewModule(Dependencies{
		Repo:     store,
		Clock:    store,
		CacheTTL: cacheTTL,
		Logger:   logger,
	})
	module.Store = store
	return module
}
