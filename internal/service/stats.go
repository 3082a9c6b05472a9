package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
	"github.com/Shivanand-hulikatti/skillsforge/internal/repository"
)

const (
	statsCacheKey      = "stats"
	categoriesCacheKey = "categories"

	// OtherCategory collects workshops whose category is not predefined.
	OtherCategory = "other"
)

// Categories is the fixed set of category definitions.
var Categories = []model.Category{
	{ID: "programming", Name: "Programación", Description: "Cursos de lenguajes de programación y desarrollo de software", Icon: "code"},
	{ID: "frontend", Name: "Frontend", Description: "Desarrollo web frontend con React, Vue, Angular", Icon: "layout"},
	{ID: "backend", Name: "Backend", Description: "Desarrollo de APIs y servicios backend", Icon: "server"},
	{ID: "cloud", Name: "Cloud Computing", Description: "AWS, Azure, GCP y servicios en la nube", Icon: "cloud"},
	{ID: "data", Name: "Data Science", Description: "Análisis de datos, Machine Learning, IA", Icon: "database"},
	{ID: "devops", Name: "DevOps", Description: "CI/CD, contenedores, infraestructura como código", Icon: "git-branch"},
	{ID: "mobile", Name: "Mobile", Description: "Desarrollo de aplicaciones móviles", Icon: "smartphone"},
	{ID: "softskills", Name: "Habilidades Blandas", Description: "Liderazgo, comunicación, trabajo en equipo", Icon: "users"},
}

// StatsService computes advisory platform aggregates. Results may be served
// from a short-lived cache; they are never authoritative.
type StatsService struct {
	workshops *repository.WorkshopRepository
	users     *repository.UserRepository
	cache     *gocache.Cache
	ttl       time.Duration
	logger    *slog.Logger
}

// NewStatsService constructs a StatsService. A ttl of zero disables caching.
func NewStatsService(workshops *repository.WorkshopRepository, users *repository.UserRepository, ttl time.Duration, logger *slog.Logger) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &StatsService{workshops: workshops, users: users, ttl: ttl, logger: logger}
	if ttl > 0 {
		s.cache = gocache.New(ttl, 2*ttl)
	}
	return s
}

// Stats returns platform counts. Workshop and student counts come from
// index counts; registration and capacity totals need every workshop read
// and summed. Any read failure yields all-zero stats.
func (s *StatsService) Stats(ctx context.Context) model.Stats {
	if v, ok := s.cached(statsCacheKey); ok {
		return v.(model.Stats)
	}

	var (
		st  model.Stats
		all []model.Workshop
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.workshops.Count(gctx)
		st.Workshops = n
		return err
	})
	g.Go(func() error {
		n, err := s.users.CountStudents(gctx)
		st.Students = n
		return err
	})
	g.Go(func() error {
		var err error
		all, err = s.workshops.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "compute stats failed", "error", err)
		return model.Stats{}
	}

	for _, w := range all {
		st.Registrations += len(w.Registrations)
		st.Capacity += max(w.Capacity, 0)
	}
	st.Occupancy = occupancy(st.Registrations, st.Capacity)

	s.store(statsCacheKey, st)
	return st
}

func occupancy(registrations, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	return int(math.Round(float64(registrations) / float64(capacity) * 100))
}

// CategoryBreakdown annotates every predefined category with its live
// workshop count. On read failure the definitions come back with zero
// counts.
func (s *StatsService) CategoryBreakdown(ctx context.Context) []model.CategoryCount {
	if v, ok := s.cached(categoriesCacheKey); ok {
		return v.([]model.CategoryCount)
	}

	counts := make(map[string]int)
	all, err := s.workshops.ListAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "category breakdown failed", "error", err)
		counts = nil
	}
	for _, w := range all {
		counts[categoryBucket(w.Category)]++
	}

	out := make([]model.CategoryCount, len(Categories))
	for i, c := range Categories {
		out[i] = model.CategoryCount{Category: c, Count: counts[c.ID]}
	}
	if err == nil {
		s.store(categoriesCacheKey, out)
	}
	return out
}

func categoryBucket(category string) string {
	for _, c := range Categories {
		if c.ID == category {
			return category
		}
	}
	return OtherCategory
}

func (s *StatsService) cached(key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *StatsService) store(key string, v any) {
	if s.cache != nil {
		s.cache.Set(key, v, gocache.DefaultExpiration)
	}
}
