package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/HerbHall/occutrend/internal/clock"
)

// Training failure modes.
var (
	ErrInsufficientData  = errors.New("insufficient data for training")
	ErrMismatchedLengths = errors.New("feature and target lengths mismatch")
	ErrSingularMatrix    = errors.New("design matrix is degenerate")
)

// TrainedModel is a fitted ordinary least-squares regression over the
// 16-dimensional feature space.
type TrainedModel struct {
	weights   []float64
	intercept float64

	TrainingMSE     float64
	ValidationMSE   float64
	Validated       bool
	TrainingSamples int
	CreatedAt       time.Time
}

// Predict returns the model's estimate for one feature vector.
func (m *TrainedModel) Predict(f Features) float64 {
	v := f.Vector()
	sum := m.intercept
	for i, w := range m.weights {
		sum += w * v[i]
	}
	return sum
}

// PredictBatch returns estimates for a set of feature vectors.
func (m *TrainedModel) PredictBatch(features []Features) []float64 {
	out := make([]float64, len(features))
	for i, f := range features {
		out[i] = m.Predict(f)
	}
	return out
}

// Coefficients returns the fitted feature weights.
func (m *TrainedModel) Coefficients() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}

// Intercept returns the fitted intercept term.
func (m *TrainedModel) Intercept() float64 {
	return m.intercept
}

// Info returns a one-line model description.
func (m *TrainedModel) Info() string {
	val := "n/a"
	if m.Validated {
		val = fmt.Sprintf("%.2f", m.ValidationMSE)
	}
	return fmt.Sprintf("TrainedModel(samples=%d, train_mse=%.2f, val_mse=%s, created=%s)",
		m.TrainingSamples, m.TrainingMSE, val, m.CreatedAt.Format("2006-01-02 15:04"))
}

// ModelBuilder configures and runs least-squares fits.
type ModelBuilder struct {
	fitIntercept bool
	clk          clock.Clock
}

// NewModelBuilder returns a builder that fits an intercept and stamps
// models with the system clock.
func NewModelBuilder() *ModelBuilder {
	return &ModelBuilder{fitIntercept: true, clk: clock.System{}}
}

// FitIntercept controls whether an intercept term is fitted.
func (b *ModelBuilder) FitIntercept(fit bool) *ModelBuilder {
	b.fitIntercept = fit
	return b
}

// WithClock sets the clock used to stamp trained models.
func (b *ModelBuilder) WithClock(clk clock.Clock) *ModelBuilder {
	b.clk = clk
	return b
}

// Train fits an OLS model on the given feature/target pairs.
func (b *ModelBuilder) Train(features []Features, targets []float64) (*TrainedModel, error) {
	if len(features) == 0 || len(targets) == 0 {
		return nil, fmt.Errorf("%w: 0 samples", ErrInsufficientData)
	}
	if len(features) != len(targets) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrMismatchedLengths, len(features), len(targets))
	}

	n := len(features)
	cols := NumFeatures
	if b.fitIntercept {
		cols++
	}

	x := mat.NewDense(n, cols, nil)
	for i, f := range features {
		row := f.Vector()
		if b.fitIntercept {
			x.Set(i, 0, 1)
			for j, v := range row {
				x.Set(i, j+1, v)
			}
		} else {
			x.SetRow(i, row)
		}
	}
	y := mat.NewVecDense(n, append([]float64(nil), targets...))

	// SVD least squares tolerates rank-deficient designs, e.g. a window
	// with no holidays leaves the is_holiday column all zero.
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, fmt.Errorf("%w: SVD factorization failed", ErrSingularMatrix)
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return nil, fmt.Errorf("%w: design matrix has rank 0", ErrSingularMatrix)
	}

	var beta mat.VecDense
	svd.SolveVecTo(&beta, y, rank)

	model := &TrainedModel{
		weights:         make([]float64, NumFeatures),
		TrainingSamples: n,
		CreatedAt:       b.clk.Now(),
	}
	if b.fitIntercept {
		model.intercept = beta.AtVec(0)
		for j := 0; j < NumFeatures; j++ {
			model.weights[j] = beta.AtVec(j + 1)
		}
	} else {
		for j := 0; j < NumFeatures; j++ {
			model.weights[j] = beta.AtVec(j)
		}
	}

	model.TrainingMSE = meanSquaredError(model.PredictBatch(features), targets)
	return model, nil
}

// TrainWithValidation fits on a leading prefix of the data and reports the
// mean squared error on the held-out suffix. The split is by index, not
// randomized. At least 10 samples are required.
func (b *ModelBuilder) TrainWithValidation(features []Features, targets []float64, validationSplit float64) (*TrainedModel, error) {
	if len(features) < 10 {
		return nil, fmt.Errorf("%w: %d samples", ErrInsufficientData, len(features))
	}
	if len(features) != len(targets) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrMismatchedLengths, len(features), len(targets))
	}

	splitIdx := int((1 - validationSplit) * float64(len(features)))

	model, err := b.Train(features[:splitIdx], targets[:splitIdx])
	if err != nil {
		return nil, err
	}

	valPredictions := model.PredictBatch(features[splitIdx:])
	model.ValidationMSE = meanSquaredError(valPredictions, targets[splitIdx:])
	model.Validated = true
	return model, nil
}

func meanSquaredError(predictions, targets []float64) float64 {
	if len(predictions) == 0 || len(predictions) != len(targets) {
		return math.MaxFloat64
	}
	var sum float64
	for i, p := range predictions {
		d := p - targets[i]
		sum += d * d
	}
	return sum / float64(len(predictions))
}
