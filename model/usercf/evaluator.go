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
	"fmt"
	"math"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/usercf/common/log"
	"github.com/gorse-io/usercf/common/parallel"
	"github.com/gorse-io/usercf/dataset"
	"github.com/juju/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	ErrMissingUser      = errors.ConstError("missing user")
	ErrEmptyDenominator = errors.ConstError("empty denominator")
)

// MissingUserError reports a user which exists in one of the train set and the
// test set but not in the other.
type MissingUserError struct {
	UserId string
	// Set is the set missing the user, "train" or "test".
	Set string
}

func (e *MissingUserError) Error() string {
	return fmt.Sprintf("user %q not found in %s set", e.UserId, e.Set)
}

func (e *MissingUserError) Unwrap() error {
	return ErrMissingUser
}

// EmptyDenominatorError reports a metric which is undefined because its
// denominator is zero.
type EmptyDenominatorError struct {
	Metric string
}

func (e *EmptyDenominatorError) Error() string {
	return fmt.Sprintf("%s is undefined since the denominator is zero", e.Metric)
}

func (e *EmptyDenominatorError) Unwrap() error {
	return ErrEmptyDenominator
}

// PrecisionDenominator decides the denominator of precision.
type PrecisionDenominator string

const (
	// PrecisionRequested divides hits by n for every evaluated user.
	PrecisionRequested PrecisionDenominator = "requested"
	// PrecisionReturned divides hits by the number of items actually recommended.
	PrecisionReturned PrecisionDenominator = "returned"
)

// MissingUserPolicy decides how to treat train users absent from the test set.
type MissingUserPolicy string

const (
	// MissingUserSkip excludes the user from recall and precision.
	MissingUserSkip MissingUserPolicy = "skip"
	// MissingUserEmpty treats the user as having an empty test set.
	MissingUserEmpty MissingUserPolicy = "empty"
	// MissingUserFail fails recall and precision with MissingUserError.
	MissingUserFail MissingUserPolicy = "fail"
)

const (
	MetricRecall     = "recall"
	MetricPrecision  = "precision"
	MetricCoverage   = "coverage"
	MetricPopularity = "popularity"
)

type EvaluateConfig struct {
	Jobs                 int
	PrecisionDenominator PrecisionDenominator
	MissingUserPolicy    MissingUserPolicy
	// Progress is called once per user whose recommendations are generated.
	Progress func(n int)
}

func NewEvaluateConfig() *EvaluateConfig {
	return &EvaluateConfig{
		Jobs:                 1,
		PrecisionDenominator: PrecisionRequested,
		MissingUserPolicy:    MissingUserSkip,
	}
}

func (config *EvaluateConfig) SetJobs(jobs int) *EvaluateConfig {
	config.Jobs = jobs
	return config
}

func (config *EvaluateConfig) SetPrecisionDenominator(denominator PrecisionDenominator) *EvaluateConfig {
	config.PrecisionDenominator = denominator
	return config
}

func (config *EvaluateConfig) SetMissingUserPolicy(policy MissingUserPolicy) *EvaluateConfig {
	config.MissingUserPolicy = policy
	return config
}

func (config *EvaluateConfig) SetProgress(progress func(n int)) *EvaluateConfig {
	config.Progress = progress
	return config
}

// Score holds offline metrics. An undefined metric is NaN.
type Score struct {
	Recall     float64
	Precision  float64
	Coverage   float64
	Popularity float64
}

// Get returns a metric by name.
func (score Score) Get(metric string) float64 {
	switch metric {
	case MetricRecall:
		return score.Recall
	case MetricPrecision:
		return score.Precision
	case MetricCoverage:
		return score.Coverage
	case MetricPopularity:
		return score.Popularity
	}
	return math.NaN()
}

// Metrics lists metric names in the order they are reported.
func Metrics() []string {
	return []string{MetricRecall, MetricPrecision, MetricCoverage, MetricPopularity}
}

// Evaluator evaluates top-n recommendations of every user in the train set
// against the test set. Recommendations are generated once and shared by all
// metrics. An Evaluator is not safe for concurrent use.
type Evaluator struct {
	train       dataset.TrainSet
	test        dataset.TestSet
	recommender *Recommender
	n           int
	config      *EvaluateConfig
	users       []string
	recommends  [][]Recommendation
}

// NewEvaluator creates an evaluator which requests n items per user. The train
// set is the one the recommender is built on.
func NewEvaluator(test dataset.TestSet, recommender *Recommender, n int, config *EvaluateConfig) *Evaluator {
	if config == nil {
		config = NewEvaluateConfig()
	}
	train := recommender.TrainSet()
	return &Evaluator{
		train:       train,
		test:        test,
		recommender: recommender,
		n:           n,
		config:      config,
		users:       train.Users(),
	}
}

func (e *Evaluator) recommendations(ctx context.Context) ([][]Recommendation, error) {
	if e.recommends != nil {
		return e.recommends, nil
	}
	start := time.Now()
	recommends := make([][]Recommendation, len(e.users))
	var emptyCount atomic.Int64
	err := parallel.Parallel(ctx, len(e.users), e.config.Jobs, func(_, jobId int) error {
		recommends[jobId] = e.recommender.Recommend(e.users[jobId], e.n)
		if len(recommends[jobId]) == 0 {
			emptyCount.Inc()
		}
		if e.config.Progress != nil {
			e.config.Progress(1)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	elapsed := time.Since(start)
	RecommendSeconds.Set(elapsed.Seconds())
	RecommendUsersTotal.Set(float64(len(e.users)))
	EmptyRecommendUsersTotal.Set(float64(emptyCount.Load()))
	log.Logger().Debug("complete generating recommendations",
		zap.Int("n_users", len(e.users)),
		zap.Int64("n_empty", emptyCount.Load()),
		zap.Duration("elapsed", elapsed))
	e.recommends = recommends
	return recommends, nil
}

// lookupTest returns test items of a train user according to the missing user policy.
func (e *Evaluator) lookupTest(user string) (items mapset.Set[string], skip bool, err error) {
	items, exist := e.test.Get(user)
	if exist {
		return items, false, nil
	}
	switch e.config.MissingUserPolicy {
	case MissingUserEmpty:
		return mapset.NewThreadUnsafeSet[string](), false, nil
	case MissingUserFail:
		return nil, true, &MissingUserError{UserId: user, Set: "test"}
	default:
		return nil, true, nil
	}
}

// checkTestUsers fails if a test user is absent from the train set under the fail policy.
func (e *Evaluator) checkTestUsers() error {
	if e.config.MissingUserPolicy != MissingUserFail {
		return nil
	}
	for _, user := range e.test.Users() {
		if _, exist := e.train[user]; !exist {
			return &MissingUserError{UserId: user, Set: "train"}
		}
	}
	return nil
}

// hits counts pairs of (user, item) appearing both in recommendations and the
// test set, and the sizes of both sides that are used as denominators.
func (e *Evaluator) hits(ctx context.Context) (hit, relevant, requested, returned int, err error) {
	recommends, err := e.recommendations(ctx)
	if err != nil {
		return 0, 0, 0, 0, errors.Trace(err)
	}
	if err = e.checkTestUsers(); err != nil {
		return 0, 0, 0, 0, err
	}
	for i, user := range e.users {
		items, skip, err := e.lookupTest(user)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		if skip {
			continue
		}
		for _, recommend := range recommends[i] {
			if items.Contains(recommend.ItemId) {
				hit++
			}
		}
		relevant += items.Cardinality()
		requested += e.n
		returned += len(recommends[i])
	}
	return
}

// Recall is the fraction of test items that have been recommended.
//
//	\frac{\sum_u |R(u) \cap T(u)|}{\sum_u |T(u)|}
func (e *Evaluator) Recall(ctx context.Context) (float64, error) {
	hit, relevant, _, _, err := e.hits(ctx)
	if err != nil {
		return math.NaN(), err
	}
	return ratio(MetricRecall, float64(hit), float64(relevant))
}

// Precision is the fraction of recommendation slots that hit the test set.
//
//	\frac{\sum_u |R(u) \cap T(u)|}{\sum_u n}
//
// With PrecisionReturned, n is replaced by |R(u)|.
func (e *Evaluator) Precision(ctx context.Context) (float64, error) {
	hit, _, requested, returned, err := e.hits(ctx)
	if err != nil {
		return math.NaN(), err
	}
	if e.config.PrecisionDenominator == PrecisionReturned {
		return ratio(MetricPrecision, float64(hit), float64(returned))
	}
	return ratio(MetricPrecision, float64(hit), float64(requested))
}

// Coverage is the fraction of items in the train set that are ever recommended.
func (e *Evaluator) Coverage(ctx context.Context) (float64, error) {
	recommends, err := e.recommendations(ctx)
	if err != nil {
		return math.NaN(), errors.Trace(err)
	}
	recommended := mapset.NewThreadUnsafeSet[string]()
	for _, list := range recommends {
		for _, recommend := range list {
			recommended.Add(recommend.ItemId)
		}
	}
	return ratio(MetricCoverage, float64(recommended.Cardinality()), float64(e.train.CountItems()))
}

// Popularity is the average of log(1 + popularity) over all recommended items,
// where popularity is the number of train users of an item. Lower is more novel.
func (e *Evaluator) Popularity(ctx context.Context) (float64, error) {
	recommends, err := e.recommendations(ctx)
	if err != nil {
		return math.NaN(), errors.Trace(err)
	}
	popularity := e.train.ItemPopularity()
	sum, count := 0.0, 0
	for _, list := range recommends {
		for _, recommend := range list {
			sum += math.Log(1 + float64(popularity[recommend.ItemId]))
			count++
		}
	}
	return ratio(MetricPopularity, sum, float64(count))
}

// Evaluate computes all metrics. Undefined metrics are reported as NaN rather
// than errors.
func (e *Evaluator) Evaluate(ctx context.Context) (Score, error) {
	var score Score
	for _, metric := range []struct {
		name  string
		value *float64
		eval  func(context.Context) (float64, error)
	}{
		{MetricRecall, &score.Recall, e.Recall},
		{MetricPrecision, &score.Precision, e.Precision},
		{MetricCoverage, &score.Coverage, e.Coverage},
		{MetricPopularity, &score.Popularity, e.Popularity},
	} {
		value, err := metric.eval(ctx)
		if err != nil {
			if !errors.Is(err, ErrEmptyDenominator) {
				return Score{}, errors.Trace(err)
			}
			log.Logger().Warn("metric is undefined", zap.String("metric", metric.name))
		}
		*metric.value = value
	}
	return score, nil
}

func ratio(metric string, numerator, denominator float64) (float64, error) {
	if denominator == 0 {
		return math.NaN(), &EmptyDenominatorError{Metric: metric}
	}
	return numerator / denominator, nil
}
