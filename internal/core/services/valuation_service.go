package services

import (
	"math"

	"casa-empenos/internal/core/domain"
	"casa-empenos/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Default sanity band for model estimates, as ratios of the reference value
const (
	DefaultValuationMinRatio = 0.5
	DefaultValuationMaxRatio = 0.8
)

// MaxReferenceValue bounds appraisal inputs so an offer stays far below
// domain.MaxLoanValue across any realistic number of renewals.
const MaxReferenceValue = 1e12

// ValuationService turns appraisal inputs into a loan offer
type ValuationService struct {
	model    Estimator
	minRatio float64
	maxRatio float64
	logger   *zap.Logger
}

// NewValuationService creates a new valuation service. Ratios outside
// 0 < min <= max fall back to the default band.
func NewValuationService(model Estimator, minRatio, maxRatio float64, logger *zap.Logger) *ValuationService {
	if minRatio <= 0 || maxRatio < minRatio {
		minRatio, maxRatio = DefaultValuationMinRatio, DefaultValuationMaxRatio
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValuationService{
		model:    model,
		minRatio: minRatio,
		maxRatio: maxRatio,
		logger:   logger,
	}
}

// FallbackEstimate is floor(ref × (0.5 + condition × 0.3))
func FallbackEstimate(referenceValue, conditionRatio float64) int64 {
	return int64(math.Floor(referenceValue * (0.5 + conditionRatio*0.3)))
}

// ValidateAppraisal checks the appraisal inputs
func ValidateAppraisal(referenceValue, conditionRatio float64) error {
	if math.IsNaN(referenceValue) || math.IsInf(referenceValue, 0) || referenceValue <= 0 {
		return domain.Invalid("reference value must be greater than 0")
	}
	if referenceValue > MaxReferenceValue {
		return domain.Invalid("reference value must not exceed %.0f", MaxReferenceValue)
	}
	if math.IsNaN(conditionRatio) || conditionRatio < 0 || conditionRatio > 1 {
		return domain.Invalid("condition ratio must be between 0 and 1")
	}
	return nil
}

// Estimate returns the loan offer for an item
func (s *ValuationService) Estimate(referenceValue, conditionRatio float64) (int64, error) {
	if err := ValidateAppraisal(referenceValue, conditionRatio); err != nil {
		return 0, err
	}

	estimate, err := s.model.Estimate(referenceValue, conditionRatio)
	switch {
	case err != nil:
		s.logger.Warn("valuation model failed, using fallback",
			zap.Float64("reference_value", referenceValue),
			zap.Float64("condition_ratio", conditionRatio),
			zap.Error(err),
		)
		metrics.RecordValuationFallback("model_error")
		estimate = FallbackEstimate(referenceValue, conditionRatio)
	case float64(estimate) < referenceValue*s.minRatio || float64(estimate) > referenceValue*s.maxRatio:
		s.logger.Debug("valuation estimate out of band, using fallback",
			zap.Int64("estimate", estimate),
			zap.Float64("reference_value", referenceValue),
		)
		metrics.RecordValuationFallback("out_of_band")
		estimate = FallbackEstimate(referenceValue, conditionRatio)
	}

	if estimate < 1 {
		return 0, domain.Invalid("reference value too small to appraise")
	}
	if estimate > domain.MaxLoanValue {
		return 0, domain.ErrValueLimit
	}
	return estimate, nil
}
