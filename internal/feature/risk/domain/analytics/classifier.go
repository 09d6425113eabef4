package analytics

import (
	"fmt"
	"math"

	"stock_risk/internal/feature/risk/domain"
	"stock_risk/internal/feature/risk/domain/entity"
	"stock_risk/internal/shared/forest"
)

// ClassifierConfig controls the per-ticker train/predict cycle.
type ClassifierConfig struct {
	Trees     int
	Seed      uint64
	TestRatio float64 // fraction of labelled rows held out, taken from the end
}

// DefaultClassifierConfig is 100 trees, seed 42 and a chronological 70/30 split.
var DefaultClassifierConfig = ClassifierConfig{
	Trees:     100,
	Seed:      42,
	TestRatio: 0.3,
}

// ClassifierReport is the outcome of one train/evaluate/predict cycle.
type ClassifierReport struct {
	Accuracy       float64
	PredictedClass int
	Confidence     float64
	Latest         entity.FeatureRow
	TrainRows      int
	TestRows       int
}

// SplitSizes returns the chronological train/test sizes for n labelled rows.
// The test set gets ceil(ratio*n) rows, the rest trains.
func SplitSizes(n int, testRatio float64) (train, test int, err error) {
	if n < 2 {
		return 0, 0, fmt.Errorf("%d labelled rows: %w", n, domain.ErrInsufficientHistory)
	}
	test = int(math.Ceil(testRatio * float64(n)))
	train = n - test
	if train < 1 || test < 1 {
		return 0, 0, fmt.Errorf("split of %d rows leaves train=%d test=%d: %w", n, train, test, domain.ErrInsufficientHistory)
	}
	return train, test, nil
}

// TrainAndPredict fits a fresh forest on the earliest labelled rows, scores it
// on the held-out tail and predicts the most recent feature-complete row.
// Accuracy is reported only; a weak model is still used for the prediction.
func TrainAndPredict(rows []entity.FeatureRow, cfg ClassifierConfig) (ClassifierReport, error) {
	if len(rows) == 0 {
		return ClassifierReport{}, fmt.Errorf("no feature-complete rows: %w", domain.ErrInsufficientHistory)
	}
	labelled := TrainingRows(rows)
	nTrain, nTest, err := SplitSizes(len(labelled), cfg.TestRatio)
	if err != nil {
		return ClassifierReport{}, err
	}

	xTrain, yTrain := matrix(labelled[:nTrain])
	xTest, yTest := matrix(labelled[nTrain:])

	model, err := forest.Train(xTrain, yTrain, forest.Config{Trees: cfg.Trees, Seed: cfg.Seed})
	if err != nil {
		return ClassifierReport{}, fmt.Errorf("train forest: %w", err)
	}
	acc, err := model.Score(xTest, yTest)
	if err != nil {
		return ClassifierReport{}, fmt.Errorf("score forest: %w", err)
	}

	latest := rows[len(rows)-1]
	class, confidence, err := model.Predict(latest.Features())
	if err != nil {
		return ClassifierReport{}, fmt.Errorf("predict latest row: %w", err)
	}

	return ClassifierReport{
		Accuracy:       acc,
		PredictedClass: class,
		Confidence:     confidence,
		Latest:         latest,
		TrainRows:      nTrain,
		TestRows:       nTest,
	}, nil
}

func matrix(rows []entity.FeatureRow) ([][]float64, []int) {
	x := make([][]float64, len(rows))
	y := make([]int, len(rows))
	for i, r := range rows {
		x[i] = r.Features()
		y[i] = r.Target
	}
	return x, y
}
