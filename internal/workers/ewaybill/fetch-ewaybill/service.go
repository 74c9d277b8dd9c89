package fetchewaybill

import (
	"context"
	stderrors "errors"
	"time"

	"ewaybill-workers/internal/common/database"
	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/logger"
	"ewaybill-workers/internal/models"
)

const cacheKeyPrefix = "ewaybill:doc:"

type Fetcher interface {
	GetEwayBill(ctx context.Context, ewbNo string) (*models.EwayBillDocument, error)
}

// Cache is satisfied by *database.RedisClient.
type Cache interface {
	GetJSON(ctx context.Context, key string, out interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type ServiceDependencies struct {
	Fetcher Fetcher
	Cache   Cache
	Logger  logger.Logger
}

type Service struct {
	config  *Config
	fetcher Fetcher
	cache   Cache
	logger  logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	s := &Service{config: config, fetcher: deps.Fetcher, cache: deps.Cache, logger: deps.Logger}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	return s
}

func cacheKey(ewbNo string) string {
	return cacheKeyPrefix + ewbNo
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	ewbNo := input.EwbNo.String()
	if _, err := input.EwbNo.Int64(); err != nil {
		return nil, errors.NewValidationError("ewbNo must be numeric")
	}

	if doc, ok := s.cached(ctx, ewbNo); ok {
		return &Output{EwayBill: doc, Badge: models.BadgeFor(doc.HoursToExpiry), FromCache: true}, nil
	}

	doc, err := s.fetcher.GetEwayBill(ctx, ewbNo)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		if err := s.cache.SetJSON(ctx, cacheKey(ewbNo), doc, s.config.CacheTTL); err != nil {
			s.logger.Warn("Failed to cache eWay Bill", map[string]interface{}{
				"ewbNo": ewbNo,
				"error": err.Error(),
			})
		}
	}

	return &Output{EwayBill: doc, Badge: models.BadgeFor(doc.HoursToExpiry)}, nil
}

// cached never fails the job: a broken cache falls through to the API.
func (s *Service) cached(ctx context.Context, ewbNo string) (*models.EwayBillDocument, bool) {
	if !s.cacheEnabled() {
		return nil, false
	}
	var doc models.EwayBillDocument
	err := s.cache.GetJSON(ctx, cacheKey(ewbNo), &doc)
	switch {
	case err == nil:
		return &doc, true
	case stderrors.Is(err, database.ErrCacheMiss):
	default:
		s.logger.Warn("Cache read failed, calling compliance API", map[string]interface{}{
			"ewbNo": ewbNo,
			"error": errors.NewCacheError(err).Error(),
		})
	}
	return nil, false
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.config.CacheTTL > 0
}
