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
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelMetric = "metric"
	LabelFold   = "fold"
	LabelStat   = "stat"
)

var registry = prometheus.NewRegistry()

var (
	BuildSimilaritySeconds = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "usercf",
		Subsystem: "model",
		Name:      "build_similarity_seconds",
	})
	RecommendSeconds = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "usercf",
		Subsystem: "model",
		Name:      "recommend_seconds",
	})
	RecommendUsersTotal = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "usercf",
		Subsystem: "model",
		Name:      "recommend_users_total",
	})
	EmptyRecommendUsersTotal = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "usercf",
		Subsystem: "model",
		Name:      "empty_recommend_users_total",
	})
	EvaluateScoreVec = promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "usercf",
		Subsystem: "evaluate",
		Name:      "score",
	}, []string{LabelMetric, LabelFold})
	CrossValidateScoreVec = promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "usercf",
		Subsystem: "evaluate",
		Name:      "cross_validate_score",
	}, []string{LabelMetric, LabelStat})
)

// Gatherer exposes metrics of usercf models.
func Gatherer() prometheus.Gatherer {
	return registry
}

// WriteMetrics writes all metrics to a file in the text format of the node
// exporter textfile collector.
func WriteMetrics(path string) error {
	return errors.Trace(prometheus.WriteToTextfile(path, registry))
}
