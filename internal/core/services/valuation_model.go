package services

import (
	"math"

	"github.com/pkg/errors"
)

// ValuationSample is one observed appraisal
type ValuationSample struct {
	ReferenceValue float64
	ConditionRatio float64
	LoanValue      float64
}

// DefaultValuationSamples is the inline dataset the offer model is fitted on
var DefaultValuationSamples = []ValuationSample{
	{ReferenceValue: 150000, ConditionRatio: 0.8, LoanValue: 90000},
	{ReferenceValue: 300000, ConditionRatio: 1.0, LoanValue: 210000},
	{ReferenceValue: 80000, ConditionRatio: 0.5, LoanValue: 40000},
	{ReferenceValue: 180000, ConditionRatio: 0.7, LoanValue: 95000},
	{ReferenceValue: 250000, ConditionRatio: 0.9, LoanValue: 150000},
}

// RegressionModel is a linear model
// value = intercept + refCoef*reference + condCoef*condition
type RegressionModel struct {
	intercept float64
	refCoef   float64
	condCoef  float64
}

// FitRegression fits a RegressionModel by ordinary least squares
func FitRegression(samples []ValuationSample) (*RegressionModel, error) {
	if len(samples) < 3 {
		return nil, errors.Errorf("regression needs at least 3 samples, got %d", len(samples))
	}

	// Normal equations (XᵀX)β = Xᵀy with rows [1, ref, cond]
	var a [3][4]float64
	for _, s := range samples {
		row := [3]float64{1, s.ReferenceValue, s.ConditionRatio}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				a[i][j] += row[i] * row[j]
			}
			a[i][3] += row[i] * s.LoanValue
		}
	}

	// Gauss-Jordan with partial pivoting
	for col := 0; col < 3; col++ {
		pivot := col
		for r := col + 1; r < 3; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errors.New("regression samples are collinear")
		}
		a[col], a[pivot] = a[pivot], a[col]

		p := a[col][col]
		for j := col; j < 4; j++ {
			a[col][j] /= p
		}
		for r := 0; r < 3; r++ {
			if r == col {
				continue
			}
			f := a[r][col]
			for j := col; j < 4; j++ {
				a[r][j] -= f * a[col][j]
			}
		}
	}

	return &RegressionModel{
		intercept: a[0][3],
		refCoef:   a[1][3],
		condCoef:  a[2][3],
	}, nil
}

// MustDefaultModel fits the model on DefaultValuationSamples
func MustDefaultModel() *RegressionModel {
	m, err := FitRegression(DefaultValuationSamples)
	if err != nil {
		panic(err)
	}
	return m
}

// Estimate implements Estimator. The prediction is truncated toward zero and
// may be negative; range checks belong to the caller.
func (m *RegressionModel) Estimate(referenceValue, conditionRatio float64) (int64, error) {
	v := m.intercept + m.refCoef*referenceValue + m.condCoef*conditionRatio
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt64/2 {
		return 0, errors.Errorf("prediction out of range: %v", v)
	}
	return int64(v), nil
}
