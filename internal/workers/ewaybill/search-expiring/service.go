package searchexpiring

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"ewaybill-workers/internal/common/database"
	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/logger"
	"ewaybill-workers/internal/models"
)

// Searcher is satisfied by *database.ElasticsearchClient.
type Searcher interface {
	Search(ctx context.Context, index string, query map[string]interface{}, size int) (*database.SearchResult, error)
}

type ServiceDependencies struct {
	Searcher Searcher
	Logger   logger.Logger
}

type Service struct {
	config   *Config
	searcher Searcher
	logger   logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	s := &Service{config: config, searcher: deps.Searcher, logger: deps.Logger}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	return s
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	window, err := models.ParseExpiryWindow(input.Window)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	size := input.Size
	if size <= 0 {
		size = s.config.DefaultSize
	}
	if size > s.config.MaxSize {
		size = s.config.MaxSize
	}

	res, err := s.searcher.Search(ctx, s.config.Index, buildQuery(window, input.Vehicle), size)
	if err != nil {
		return nil, s.mapSearchError(ctx, err)
	}

	docs := make([]models.EwayBillDocument, 0, len(res.Sources))
	for _, src := range res.Sources {
		var doc models.EwayBillDocument
		if err := json.Unmarshal(src, &doc); err != nil {
			s.logger.Warn("Skipping malformed search hit", map[string]interface{}{"error": err.Error()})
			continue
		}
		docs = append(docs, doc)
	}

	// The index may lag the API; apply the predicate again on what came back.
	docs = models.FilterByExpiry(docs, window)

	out := &Output{
		Documents: make([]ExpiringDocument, 0, len(docs)),
		Window:    window,
		TotalHits: res.TotalHits,
		Took:      res.Took,
	}
	for _, d := range docs {
		out.Documents = append(out.Documents, ExpiringDocument{EwayBillDocument: d, Badge: models.BadgeFor(d.HoursToExpiry)})
	}
	return out, nil
}

func (s *Service) mapSearchError(ctx context.Context, err error) error {
	switch {
	case stderrors.Is(err, database.ErrIndexNotFound):
		return errors.NewIndexNotFoundError(s.config.Index)
	case stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.NewSearchTimeoutError(s.config.Index)
	default:
		return errors.NewSearchQueryFailedError(err)
	}
}
