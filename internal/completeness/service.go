package completeness

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/pim/backend/internal/contracts"
	"github.com/wonny/pim/backend/pkg/logger"
)

// Service computes completeness and hands it to the persistence gateway
type Service struct {
	calculator contracts.CompletenessCalculator
	saver      contracts.CompletenessSaver
	logger     *logger.Logger
}

// NewService creates a compute-and-save service
func NewService(calculator contracts.CompletenessCalculator, saver contracts.CompletenessSaver, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		calculator: calculator,
		saver:      saver,
		logger:     log.WithComponent("completeness_service"),
	}
}

// SaveResult summarizes one ComputeAndSave call
type SaveResult struct {
	Products       int
	Completenesses int
	Duration       time.Duration
}

// ComputeAndSave computes the batch and persists it with a single SaveAll.
// Nothing is saved when the calculation fails.
func (s *Service) ComputeAndSave(ctx context.Context, identifiers []string) (*SaveResult, error) {
	start := time.Now()

	results, err := s.calculator.FromProductIdentifiers(ctx, identifiers)
	if err != nil {
		return nil, fmt.Errorf("calculate completeness: %w", err)
	}

	batch := ToPersisted(results)

	if err := s.saver.SaveAll(ctx, batch); err != nil {
		return nil, fmt.Errorf("save completeness: %w", err)
	}

	result := &SaveResult{Products: len(batch), Duration: time.Since(start)}
	for _, collection := range batch {
		result.Completenesses += len(collection.Completenesses)
	}

	s.logger.WithFields(map[string]interface{}{
		"products":       result.Products,
		"completenesses": result.Completenesses,
		"duration_ms":    result.Duration.Milliseconds(),
	}).Info("completeness saved")

	return result, nil
}

// ToPersisted converts calculator output to the gateway form, ordered by product id
func ToPersisted(results map[string]*contracts.ProductCompletenessWithMissingAttributeCodesCollection) []contracts.ProductCompletenessCollection {
	batch := make([]contracts.ProductCompletenessCollection, 0, len(results))
	for _, collection := range results {
		batch = append(batch, collection.ToProductCompletenessCollection())
	}
	sort.Slice(batch, func(i, j int) bool {
		return batch[i].ProductID < batch[j].ProductID
	})
	return batch
}
