package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

const listCacheKey = "products:list"

// Cache stores adapted product listings. Implementations must treat a miss as (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

type Service interface {
	List(ctx context.Context) ([]View, error)
	GetByID(ctx context.Context, id uuid.UUID) (*View, error)
	GetBySlug(ctx context.Context, slug string) (*View, error)
	Create(ctx context.Context, in Input) (*View, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*View, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  Repository
	cache Cache
}

// NewService builds a product service. cache may be nil.
func NewService(repo Repository, cache Cache) Service {
	return &service{repo: repo, cache: cache}
}

func (s *service) List(ctx context.Context) ([]View, error) {
	if s.cache != nil {
		var cached []View
		ok, err := s.cache.Get(ctx, listCacheKey, &cached)
		if err != nil {
			log.Warn().Err(err).Msg("service: product cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products in repository")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	views := AdaptAll(products)

	if s.cache != nil {
		if err := s.cache.Set(ctx, listCacheKey, views); err != nil {
			log.Warn().Err(err).Msg("service: product cache write failed")
		}
	}

	return views, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*View, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, id.String())
	}
	view := Adapt(*p)
	return &view, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*View, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, s.lookupError(err, slug)
	}
	view := Adapt(*p)
	return &view, nil
}

func (s *service) lookupError(err error, key string) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	log.Error().Err(err).Str("product", key).Msg("service: failed to get product in repository")
	return fmt.Errorf("failed to get product '%s': %w", key, err)
}

func (s *service) Create(ctx context.Context, in Input) (*View, error) {
	p := fromInput(in)

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrSlugExists) {
			log.Warn().Str("slug", p.Slug).Msg("service: product slug already taken")
			return nil, ErrSlugExists
		}
		log.Error().Err(err).Msg("service: failed to create product in repository")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidate(ctx)
	log.Info().Stringer("product_id", p.ID).Msg("service: product created")

	view := Adapt(*p)
	return &view, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, in Input) (*View, error) {
	p := fromInput(in)
	p.ID = id

	if err := s.repo.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, ErrSlugExists):
			log.Warn().Str("slug", p.Slug).Msg("service: product slug already taken")
			return nil, ErrSlugExists
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to update product in repository")
		return nil, fmt.Errorf("failed to update product '%s': %w", id, err)
	}

	s.invalidate(ctx)
	log.Info().Stringer("product_id", id).Msg("service: product updated")

	view := Adapt(*p)
	return &view, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to delete product in repository")
		return fmt.Errorf("failed to delete product '%s': %w", id, err)
	}

	s.invalidate(ctx)
	log.Info().Stringer("product_id", id).Msg("service: product deleted")
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listCacheKey); err != nil {
		log.Warn().Err(err).Msg("service: product cache invalidation failed")
	}
}

func fromInput(in Input) *Product {
	origin := Origin{Country: UnknownCountry}
	if len(in.Origin) > 0 && strings.TrimSpace(in.Origin[0]) != "" {
		origin.Country = strings.TrimSpace(in.Origin[0])
	}
	if len(in.Origin) > 1 {
		origin.Region = strings.TrimSpace(in.Origin[1])
	}

	brewing := BrewingInfo{
		Amount:      DefaultServingSize,
		Temperature: DefaultWaterTemp,
		Time:        DefaultSteepingTime,
	}
	if in.BrewingInfo != nil {
		brewing.Amount = orDefault(in.BrewingInfo.Amount, DefaultServingSize)
		brewing.Temperature = orDefault(in.BrewingInfo.Temperature, DefaultWaterTemp)
		brewing.Time = orDefault(in.BrewingInfo.Time, DefaultSteepingTime)
	}

	variants := make([]Variant, 0, len(in.Variants))
	for _, v := range in.Variants {
		variants = append(variants, Variant{
			Weight: v.Weight,
			Price:  v.Price,
			Stock:  v.Stock,
		})
	}

	return &Product{
		Name:        strings.TrimSpace(in.Name),
		Slug:        strings.TrimSpace(in.Slug),
		Description: in.Description,
		Category:    in.Category,
		Origin:      origin,
		Flavor:      nonNil(in.Flavor),
		Caffeine:    in.Caffeine,
		Organic:     in.Organic,
		Vegan:       in.Vegan,
		Allergens:   nonNil(in.Allergens),
		Qualities:   nonNil(in.Qualities),
		Ingredients: in.Ingredients,
		ImageURL:    in.ImageURL,
		BrewingInfo: brewing,
		Variants:    variants,
	}
}
