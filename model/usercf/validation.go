// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package usercf

import (
	"context"
	"math"
	"strconv"

	"github.com/gorse-io/usercf/common/log"
	"github.com/gorse-io/usercf/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

const (
	StatMean   = "mean"
	StatStdDev = "std"
)

type CVConfig struct {
	Folds     int
	Seed      int64
	Neighbors int
	TopN      int
	Evaluate  *EvaluateConfig
}

func NewCVConfig() *CVConfig {
	return &CVConfig{
		Folds:     8,
		Neighbors: 80,
		TopN:      10,
		Evaluate:  NewEvaluateConfig(),
	}
}

type CVResult struct {
	Scores []Score
	Mean   Score
	StdDev Score
}

// EvaluateFold splits interactions with the given fold, builds the similarity
// matrix on the train part and evaluates recommendations against the test part.
func EvaluateFold(ctx context.Context, interactions []dataset.Interaction, fold int, cfg *CVConfig) (Score, error) {
	if cfg.Evaluate == nil {
		cfg.Evaluate = NewEvaluateConfig()
	}
	trainSet, testSet, err := dataset.Split(interactions, cfg.Folds, fold, cfg.Seed)
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	train := dataset.NewTrainSet(trainSet)
	test := dataset.NewTestSet(testSet)
	sim, err := BuildSimilarityContext(ctx, train, cfg.Evaluate.Jobs)
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	recommender, err := NewRecommender(train, sim, cfg.Neighbors)
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	evaluator := NewEvaluator(test, recommender, cfg.TopN, cfg.Evaluate)
	score, err := evaluator.Evaluate(ctx)
	if err != nil {
		return Score{}, errors.Annotatef(err, "failed to evaluate fold %d", fold)
	}
	for _, metric := range Metrics() {
		EvaluateScoreVec.WithLabelValues(metric, strconv.Itoa(fold)).Set(score.Get(metric))
	}
	log.Logger().Info("complete evaluating fold",
		zap.Int("fold", fold),
		zap.Int("n_train", len(trainSet)),
		zap.Int("n_test", len(testSet)),
		zap.Float64("recall", score.Recall),
		zap.Float64("precision", score.Precision),
		zap.Float64("coverage", score.Coverage),
		zap.Float64("popularity", score.Popularity))
	return score, nil
}

// CrossValidate evaluates fold 0 to folds-1 with the same seed and aggregates
// metrics. NaN values are excluded from the aggregate of a metric.
func CrossValidate(ctx context.Context, interactions []dataset.Interaction, cfg *CVConfig) (*CVResult, error) {
	if cfg.Folds < 1 {
		return nil, errors.NotValidf("folds %d", cfg.Folds)
	}
	result := &CVResult{Scores: make([]Score, 0, cfg.Folds)}
	for fold := 0; fold < cfg.Folds; fold++ {
		score, err := EvaluateFold(ctx, interactions, fold, cfg)
		if err != nil {
			return nil, errors.Trace(err)
		}
		result.Scores = append(result.Scores, score)
	}
	result.Mean, result.StdDev = aggregate(result.Scores)
	for _, metric := range Metrics() {
		CrossValidateScoreVec.WithLabelValues(metric, StatMean).Set(result.Mean.Get(metric))
		CrossValidateScoreVec.WithLabelValues(metric, StatStdDev).Set(result.StdDev.Get(metric))
	}
	return result, nil
}

func aggregate(scores []Score) (mean, std Score) {
	summarize := func(metric string) (float64, float64) {
		values := lo.FilterMap(scores, func(score Score, _ int) (float64, bool) {
			value := score.Get(metric)
			return value, !math.IsNaN(value)
		})
		switch len(values) {
		case 0:
			return math.NaN(), math.NaN()
		case 1:
			return values[0], 0
		default:
			return stat.MeanStdDev(values, nil)
		}
	}
	mean.Recall, std.Recall = summarize(MetricRecall)
	mean.Precision, std.Precision = summarize(MetricPrecision)
	mean.Coverage, std.Coverage = summarize(MetricCoverage)
	mean.Popularity, std.Popularity = summarize(MetricPopularity)
	return
}
