package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carconnect/internal/domain"
	"carconnect/internal/repository"
	"carconnect/internal/store"
	"carconnect/internal/tenant"

	"go.uber.org/zap"
)

const parameterCachePrefix = "carconnect:param:"

// ParameterService serves the public lookup lists, cached in the KV store
type ParameterService interface {
	List(ctx context.Context, table tenant.TableName) ([]domain.Parameter, error)
	Centers(ctx context.Context) ([]domain.CenterSummary, error)
}

type parameterService struct {
	params  repository.ParametersRepository
	centers repository.CentersRepository
	cache   store.KV
	ttl     time.Duration
	logger  *zap.Logger
}

func NewParameterService(
	params repository.ParametersRepository,
	centers repository.CentersRepository,
	cache store.KV,
	ttl time.Duration,
	logger *zap.Logger,
) ParameterService {
	return &parameterService{params: params, centers: centers, cache: cache, ttl: ttl, logger: logger}
}

func (s *parameterService) List(ctx context.Context, table tenant.TableName) ([]domain.Parameter, error) {
	var out []domain.Parameter
	err := s.cached(ctx, string(table), &out, func() (any, error) {
		return s.params.ListParameters(ctx, table)
	})
	return out, err
}

func (s *parameterService) Centers(ctx context.Context) ([]domain.CenterSummary, error) {
	var out []domain.CenterSummary
	err := s.cached(ctx, "centers", &out, func() (any, error) {
		return s.centers.ListCenters(ctx)
	})
	return out, err
}

// cached decodes key into dst, falling back to load on a miss. Cache errors only degrade to a load.
func (s *parameterService) cached(ctx context.Context, key string, dst any, load func() (any, error)) error {
	key = parameterCachePrefix + key
	if s.ttl > 0 {
		raw, err := s.cache.Get(ctx, key)
		if err == nil {
			if err := json.Unmarshal([]byte(raw), dst); err == nil {
				return nil
			}
			s.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
		} else if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("Parameter cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	v, err := load()
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if s.ttl > 0 {
		if err := s.cache.Set(ctx, key, string(b), s.ttl); err != nil {
			s.logger.Warn("Parameter cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return json.Unmarshal(b, dst)
}
