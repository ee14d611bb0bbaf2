package churn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Prepared is a record after encoding, reindexing and numeric coercion.
type Prepared struct {
	Record   Record    `json:"record"`
	Features []float32 `json:"features"`
	Padded   []string  `json:"padded,omitempty"`
	Coerced  []string  `json:"coerced,omitempty"`
	Unknown  []string  `json:"unknown,omitempty"`
}

// Service runs the inference pipeline against artifacts loaded at startup.
type Service struct {
	artifacts *Artifacts

	cfgMu sync.RWMutex
	cfg   Config

	metrics *Metrics
	logger  *zap.Logger
}

// NewService constructs a service. It takes ownership of artifacts.
func NewService(artifacts *Artifacts, cfg Config, logger *zap.Logger) (*Service, error) {
	if artifacts == nil {
		return nil, errors.New("artifacts are required")
	}
	if err := artifacts.Check(); err != nil {
		return nil, fmt.Errorf("check artifacts: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	return &Service{
		artifacts: artifacts,
		cfg:       cfg,
		metrics:   NewMetrics(cfg.MetricsFile),
		logger:    logger,
	}, nil
}

// Close releases model resources.
func (s *Service) Close() error {
	return s.artifacts.Close()
}

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig replaces the configuration. Artifact paths are not reloaded.
func (s *Service) UpdateConfig(cfg Config) {
	cfg.ApplyDefaults()
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

// Metrics returns the prediction counters.
func (s *Service) Metrics() *Metrics { return s.metrics }

// ModelID identifies the loaded model.
func (s *Service) ModelID() string { return s.artifacts.Model.ModelID() }

// Prepare turns c into the model's feature vector.
func (s *Service) Prepare(ctx context.Context, c Customer) (Prepared, error) {
	if err := ctx.Err(); err != nil {
		return Prepared{}, err
	}
	policy := s.Config().UnknownCategory

	encoded, unknown, err := s.artifacts.Encoders.Encode(c.Record(), policy)
	if err != nil {
		return Prepared{}, err
	}
	for _, col := range unknown {
		s.logger.Warn("unseen category encoded as sentinel",
			zap.String("column", col), zap.Int("code", SentinelCode))
	}

	ordered, padded := s.artifacts.Columns.Reindex(encoded)
	if len(padded) > 0 {
		s.logger.Warn("model columns missing from record, filled with 0", zap.Strings("columns", padded))
	}

	features, coerced := CoerceNumeric(ordered)
	if len(coerced) > 0 {
		s.logger.Warn("non-numeric values defaulted to 0", zap.Strings("columns", coerced))
	}

	return Prepared{
		Record:   ordered,
		Features: features,
		Padded:   padded,
		Coerced:  coerced,
		Unknown:  unknown,
	}, nil
}

// Predict scores one customer.
func (s *Service) Predict(ctx context.Context, c Customer) (Prediction, error) {
	start := time.Now()
	prep, err := s.Prepare(ctx, c)
	if err != nil {
		s.metrics.fail(failureReason(err))
		return Prediction{}, fmt.Errorf("prepare record: %w", err)
	}
	score, err := s.artifacts.Model.Predict(ctx, prep.Features)
	if err != nil {
		s.metrics.fail("model")
		return Prediction{}, fmt.Errorf("score record: %w", err)
	}
	if score.Label != 0 && score.Label != 1 {
		s.metrics.fail("model")
		return Prediction{}, fmt.Errorf("model returned label %d", score.Label)
	}
	pred := Prediction{
		Label:       score.Label,
		Probability: score.Probability,
		Churn:       score.Label == 1,
		ModelID:     s.ModelID(),
		Padded:      prep.Padded,
		Coerced:     prep.Coerced,
		Unknown:     prep.Unknown,
		Elapsed:     time.Since(start),
	}
	s.metrics.observe(pred)
	if err := s.metrics.Flush(); err != nil {
		s.logger.Warn("write metrics textfile", zap.Error(err))
	}
	s.logger.Info("prediction",
		zap.Int("label", pred.Label),
		zap.Float64("probability", pred.Probability),
		zap.Duration("elapsed", pred.Elapsed))
	return pred, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
