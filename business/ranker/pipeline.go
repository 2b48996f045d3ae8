package ranker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"tripmatch/domain"
	"tripmatch/pkg/logger"

	"github.com/google/uuid"
)

// PipelineState names the training state machine's positions. The run moves
// Idle → Collecting → Training → Validating → {Deploying | Discarding} → Idle.
type PipelineState string

const (
	StateIdle       PipelineState = "idle"
	StateCollecting PipelineState = "collecting"
	StateTraining   PipelineState = "training"
	StateValidating PipelineState = "validating"
	StateDeploying  PipelineState = "deploying"
	StateDiscarding PipelineState = "discarding"
)

const (
	OutcomeDeployed  = "deployed"
	OutcomeDiscarded = "discarded"
)

// trainSplitPercent of sessions land in the train partition; the rest
// validate. Split by session hash so one session never straddles both.
const trainSplitPercent = 80

// TrainingExampleRepository reads a trailing window of the impression log
// owned by the logging collaborator. Read-only from the pipeline's side.
type TrainingExampleRepository interface {
	ListWindow(ctx context.Context, since time.Time) ([]domain.TrainingExample, error)
}

type TrainingConfig struct {
	WindowDays       int
	Epochs           int
	LearningRate     float64
	MinExamples      int
	PromoteTolerance float64
	MaxDwell         time.Duration
}

func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		WindowDays:       30,
		Epochs:           50,
		LearningRate:     0.05,
		MinExamples:      500,
		PromoteTolerance: 0.0,
		MaxDwell:         30 * time.Minute,
	}
}

// RunReport is the durable record of one pipeline run.
type RunReport struct {
	RunID                string    `json:"run_id"`
	StartedAt            time.Time `json:"started_at"`
	FinishedAt           time.Time `json:"finished_at"`
	Outcome              string    `json:"outcome"`
	Reason               string    `json:"reason,omitempty"`
	Collected            int       `json:"collected"`
	TrainSize            int       `json:"train_size"`
	ValidationSize       int       `json:"validation_size"`
	TrainLoss            float64   `json:"train_loss"`
	ValidationLoss       float64   `json:"validation_loss"`
	ActiveValidationLoss float64   `json:"active_validation_loss"`
	CandidateVersion     uint64    `json:"candidate_version,omitempty"`
}

// Pipeline owns the background learning loop. Only one run may be in flight
// at a time; the run lock keeps concurrent triggers from racing on the
// WeightStore publication. Serving never depends on this path; the two
// share nothing but the store's published snapshot.
type Pipeline struct {
	runMu    sync.Mutex
	examples TrainingExampleRepository
	store    *WeightStore
	cfg      TrainingConfig

	state      atomic.Value // PipelineState
	lastReport atomic.Pointer[RunReport]
}

func NewPipeline(examples TrainingExampleRepository, store *WeightStore, cfg TrainingConfig) *Pipeline {
	p := &Pipeline{
		examples: examples,
		store:    store,
		cfg:      cfg,
	}
	p.state.Store(StateIdle)
	return p
}

func (p *Pipeline) State() PipelineState {
	return p.state.Load().(PipelineState)
}

// LastReport returns the most recent run report, or nil before the first run.
func (p *Pipeline) LastReport() *RunReport {
	return p.lastReport.Load()
}

func (p *Pipeline) setState(s PipelineState) {
	p.state.Store(s)
	logger.Debug("training pipeline state", "state", string(s))
}

// Run executes one complete training cycle. It returns ErrRunInProgress when
// another run holds the lock. Data-quality terminations (insufficient data,
// divergence, validation regression) are not errors: the run ends in
// Discarding, the reason lands in the report, and serving is untouched.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	if !p.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.runMu.Unlock()

	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		report.FinishedAt = time.Now().UTC()
		p.lastReport.Store(report)
		p.setState(StateIdle)
		if report.Outcome != "" {
			TrainingRunsTotal.WithLabelValues(report.Outcome).Inc()
		}
	}()

	active := p.store.GetActive()

	// Collecting
	p.setState(StateCollecting)
	since := report.StartedAt.AddDate(0, 0, -p.cfg.WindowDays)
	rows, err := p.examples.ListWindow(ctx, since)
	if err != nil {
		return report, fmt.Errorf("collect training examples: %w", err)
	}
	report.Collected = len(rows)

	train, validation := p.prepare(active, rows)
	report.TrainSize = len(train)
	report.ValidationSize = len(validation)

	if len(train)+len(validation) < p.cfg.MinExamples || len(train) == 0 || len(validation) == 0 {
		p.discard(report, fmt.Sprintf("%v: %d usable of %d required",
			ErrInsufficientTrainingData, len(train)+len(validation), p.cfg.MinExamples))
		return report, nil
	}

	// Training
	p.setState(StateTraining)
	weights := active.Values
	for epoch := 1; epoch <= p.cfg.Epochs; epoch++ {
		grad, trainLoss := ComputeGradient(weights, train)

		next, err := ApplyUpdate(weights, grad, p.cfg.LearningRate)
		if err != nil {
			if errors.Is(err, ErrDivergence) {
				p.discard(report, fmt.Sprintf("epoch %d: %v", epoch, err))
				return report, nil
			}
			return report, err
		}
		weights = next

		report.TrainLoss = trainLoss
		valLoss := ValidationLoss(weights, validation)
		logger.Debug("training epoch",
			"run_id", report.RunID,
			"epoch", epoch,
			"train_loss", trainLoss,
			"validation_loss", valLoss,
		)
	}

	// Validating
	p.setState(StateValidating)
	candidateLoss := ValidationLoss(weights, validation)
	activeLoss := ValidationLoss(active.Values, validation)
	report.ValidationLoss = candidateLoss
	report.ActiveValidationLoss = activeLoss

	allowed := activeLoss * (1 + p.cfg.PromoteTolerance)
	if candidateLoss > allowed {
		p.discard(report, fmt.Sprintf(
			"validation regression: candidate %.6f vs active %.6f (allowed %.6f)",
			candidateLoss, activeLoss, allowed))
		return report, nil
	}

	// Deploying
	p.setState(StateDeploying)
	wv, err := p.store.Publish(ctx, weights, "training run "+report.RunID)
	if err != nil {
		return report, fmt.Errorf("deploy candidate weights: %w", err)
	}

	report.Outcome = OutcomeDeployed
	report.CandidateVersion = wv.Version
	logger.Info("training run deployed",
		"run_id", report.RunID,
		"version", wv.Version,
		"validation_loss", candidateLoss,
		"active_validation_loss", activeLoss,
	)
	return report, nil
}

func (p *Pipeline) discard(report *RunReport, reason string) {
	p.setState(StateDiscarding)
	report.Outcome = OutcomeDiscarded
	report.Reason = reason
	logger.Warn("training run discarded", "run_id", report.RunID, "reason", reason)
}

// prepare filters invalid rows and splits the rest deterministically into
// train/validation partitions by session hash: identical input data always
// yields the identical split, and no session straddles both partitions.
func (p *Pipeline) prepare(active *WeightVector, rows []domain.TrainingExample) (train, validation []TrainingInstance) {
	maxDwellMS := p.cfg.MaxDwell.Milliseconds()

	for _, row := range rows {
		if row.SessionID == "" || row.Position < 0 || row.BotFlagged {
			continue
		}
		if row.SchemaVersion != active.Schema {
			continue
		}
		if row.DwellMS != nil && (*row.DwellMS < 0 || (maxDwellMS > 0 && *row.DwellMS > maxDwellMS)) {
			continue
		}

		features, ok := decodeFeatures(row.FeaturesRaw)
		if !ok {
			continue
		}

		inst := TrainingInstance{
			Features: features,
			Position: row.Position,
		}
		if row.Clicked {
			inst.Label = 1
		}

		if isTrainSession(row.SessionID) {
			train = append(train, inst)
		} else {
			validation = append(validation, inst)
		}
	}
	return train, validation
}

func decodeFeatures(raw []byte) ([FeatureDim]float64, bool) {
	var out [FeatureDim]float64
	var vals []float64
	if err := json.Unmarshal(raw, &vals); err != nil || len(vals) != int(FeatureDim) {
		return out, false
	}
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return out, false
		}
		out[i] = v
	}
	return out, true
}

// isTrainSession buckets a session into the train partition by stable hash.
func isTrainSession(sessionID string) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return h.Sum32()%100 < trainSplitPercent
}

// Start runs the pipeline on a fixed interval until ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("training scheduler stopped")
				return
			case <-ticker.C:
				report, err := p.Run(ctx)
				if err != nil {
					logger.Error("scheduled training run failed", "error", err)
					continue
				}
				logger.Info("scheduled training run finished",
					"run_id", report.RunID,
					"outcome", report.Outcome,
					"reason", report.Reason,
				)
			}
		}
	}()
}
