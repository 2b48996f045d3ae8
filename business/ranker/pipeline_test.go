package ranker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"tripmatch/domain"

	"github.com/stretchr/testify/assert"
)

type memExampleRepo struct {
	rows []domain.TrainingExample
}

func (r *memExampleRepo) ListWindow(_ context.Context, since time.Time) ([]domain.TrainingExample, error) {
	out := make([]domain.TrainingExample, 0, len(r.rows))
	for _, row := range r.rows {
		if !row.CreatedAt.Before(since) {
			out = append(out, row)
		}
	}
	return out, nil
}

func testTrainingConfig() TrainingConfig {
	cfg := DefaultTrainingConfig()
	cfg.MinExamples = 10
	cfg.Epochs = 50
	cfg.LearningRate = 0.05
	return cfg
}

// exampleRow encodes a feature vector that is zero everywhere except the
// base score and the geo slot, which carries geo. Labels are set by the
// caller.
func exampleRow(session string, position int, clicked bool, geo float64) domain.TrainingExample {
	var values [FeatureDim]float64
	values[FeatureBaseScore] = 1
	values[FeatureGeoMatchLevel] = geo
	raw, _ := json.Marshal(values[:])

	return domain.TrainingExample{
		SessionID:     session,
		Position:      position,
		Clicked:       clicked,
		SchemaVersion: SchemaVersion,
		FeaturesRaw:   raw,
		CreatedAt:     time.Now().UTC(),
	}
}

// consistentRows labels clicks by the geo signal in both partitions. When
// flipValidation is set, validation sessions get the opposite labels so any
// candidate trained on the train partition regresses on validation.
func consistentRows(n int, flipValidation bool) []domain.TrainingExample {
	rows := make([]domain.TrainingExample, 0, 2*n)
	for i := 0; i < n; i++ {
		session := fmt.Sprintf("sess-%03d", i)
		clickedPos, clickedNeg := true, false
		if flipValidation && !isTrainSession(session) {
			clickedPos, clickedNeg = false, true
		}
		rows = append(rows,
			exampleRow(session, 0, clickedPos, 1),
			exampleRow(session, 1, clickedNeg, -1),
		)
	}
	return rows
}

func TestPipelineDeploysOnImprovement(t *testing.T) {
	store, _ := newTestStore(t)
	repo := &memExampleRepo{rows: consistentRows(60, false)}
	p := NewPipeline(repo, store, testTrainingConfig())

	report, err := p.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, OutcomeDeployed, report.Outcome)
	assert.NotZero(t, report.TrainSize)
	assert.NotZero(t, report.ValidationSize)
	assert.Equal(t, uint64(2), report.CandidateVersion)
	assert.Equal(t, uint64(2), store.GetActive().Version)
	assert.LessOrEqual(t, report.ValidationLoss, report.ActiveValidationLoss)
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, report, p.LastReport())
}

func TestPipelineDiscardsOnValidationRegression(t *testing.T) {
	store, _ := newTestStore(t)
	repo := &memExampleRepo{rows: consistentRows(60, true)}
	p := NewPipeline(repo, store, testTrainingConfig())

	report, err := p.Run(context.Background())
	assert.NoError(t, err, "a regression ends the run, it is not an error")
	assert.Equal(t, OutcomeDiscarded, report.Outcome)
	assert.Contains(t, report.Reason, "validation regression")
	assert.Equal(t, uint64(1), store.GetActive().Version, "active weights stay in force")
	assert.Equal(t, StateIdle, p.State())
}

func TestPipelineDiscardsOnInsufficientData(t *testing.T) {
	store, _ := newTestStore(t)
	repo := &memExampleRepo{rows: consistentRows(3, false)}
	p := NewPipeline(repo, store, testTrainingConfig())

	report, err := p.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, OutcomeDiscarded, report.Outcome)
	assert.Contains(t, report.Reason, ErrInsufficientTrainingData.Error())
	assert.Equal(t, uint64(1), store.GetActive().Version)
}

func TestPipelineDiscardsOnDivergence(t *testing.T) {
	store, _ := newTestStore(t)

	rows := make([]domain.TrainingExample, 0, 120)
	for i := 0; i < 60; i++ {
		session := fmt.Sprintf("sess-%03d", i)
		row := exampleRow(session, 0, false, 1)
		huge := [FeatureDim]float64{1e308, 1e308, 1e308, 1e308, 1e308, 1e308, 1e308, 1e308}
		raw, _ := json.Marshal(huge[:])
		row.FeaturesRaw = raw
		rows = append(rows, row, exampleRow(session, 1, true, -1))
	}

	p := NewPipeline(&memExampleRepo{rows: rows}, store, testTrainingConfig())
	report, err := p.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, OutcomeDiscarded, report.Outcome)
	assert.Contains(t, report.Reason, ErrDivergence.Error())
	assert.Equal(t, uint64(1), store.GetActive().Version)
}

func TestPipelineFiltersInvalidRows(t *testing.T) {
	store, _ := newTestStore(t)

	good := exampleRow("sess-keep", 0, true, 1)

	bot := exampleRow("sess-bot", 0, true, 1)
	bot.BotFlagged = true

	anon := exampleRow("", 0, true, 1)

	negPos := exampleRow("sess-neg", -1, true, 1)

	oldSchema := exampleRow("sess-old", 0, true, 1)
	oldSchema.SchemaVersion = SchemaVersion - 1

	longDwell := exampleRow("sess-dwell", 0, true, 1)
	dwell := (2 * time.Hour).Milliseconds()
	longDwell.DwellMS = &dwell

	badFeatures := exampleRow("sess-bad", 0, true, 1)
	badFeatures.FeaturesRaw = []byte(`[1, 2]`)

	cfg := testTrainingConfig()
	p := NewPipeline(&memExampleRepo{rows: []domain.TrainingExample{
		good, bot, anon, negPos, oldSchema, longDwell, badFeatures,
	}}, store, cfg)

	report, err := p.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 7, report.Collected)
	assert.Equal(t, 1, report.TrainSize+report.ValidationSize)
	assert.Equal(t, OutcomeDiscarded, report.Outcome)
}

func TestPipelineRejectsConcurrentRuns(t *testing.T) {
	store, _ := newTestStore(t)
	p := NewPipeline(&memExampleRepo{}, store, testTrainingConfig())

	p.runMu.Lock()
	_, err := p.Run(context.Background())
	p.runMu.Unlock()
	assert.ErrorIs(t, err, ErrRunInProgress)

	// once released the pipeline accepts runs again
	report, err := p.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, OutcomeDiscarded, report.Outcome)
}

func TestSessionSplitIsStable(t *testing.T) {
	train, validation := 0, 0
	for i := 0; i < 1000; i++ {
		session := fmt.Sprintf("sess-%04d", i)
		a := isTrainSession(session)
		b := isTrainSession(session)
		assert.Equal(t, a, b)
		if a {
			train++
		} else {
			validation++
		}
	}
	// roughly 80/20, and both partitions populated
	assert.Greater(t, train, 700)
	assert.Greater(t, validation, 100)
}

func TestSessionNeverStraddlesPartitions(t *testing.T) {
	store, _ := newTestStore(t)
	p := NewPipeline(&memExampleRepo{}, store, testTrainingConfig())

	rows := consistentRows(40, false)
	train, validation := p.prepare(store.GetActive(), rows)

	// every session contributed two rows; both must land on the same side
	assert.Equal(t, 0, (len(train)+len(validation))%2)
	assert.Equal(t, 0, len(train)%2)
	assert.Equal(t, 0, len(validation)%2)
}

func TestRunReportHasIdentityAndTimings(t *testing.T) {
	store, _ := newTestStore(t)
	p := NewPipeline(&memExampleRepo{}, store, testTrainingConfig())

	report, err := p.Run(context.Background())
	assert.NoError(t, err)
	assert.True(t, strings.Count(report.RunID, "-") == 4, "run id is a uuid")
	assert.False(t, report.StartedAt.IsZero())
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}
