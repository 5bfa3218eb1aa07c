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

package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorse-io/usercf/common/log"
	"github.com/gorse-io/usercf/dataset"
	"github.com/gorse-io/usercf/model/usercf"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var evaluateCommand = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate user-based collaborative filtering offline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		runId := uuid.New().String()
		log.Logger().Info("start evaluation",
			zap.String("run_id", runId),
			zap.Any("config", conf))
		interactions, err := loadInteractions(conf)
		if err != nil {
			return errors.Trace(err)
		}

		cvConfig := conf.CVConfig()
		folds := []int{conf.Split.Fold}
		if conf.Evaluate.CrossValidate {
			folds = lo.Range(conf.Split.Folds)
		}
		numUsers, err := countTrainUsers(interactions, cvConfig, folds)
		if err != nil {
			return errors.Trace(err)
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		bar := newProgressBar(cmd.ErrOrStderr(), numUsers, "Evaluating", quiet)
		cvConfig.Evaluate.SetProgress(func(n int) {
			_ = bar.Add(n)
		})

		start := time.Now()
		var result *usercf.CVResult
		if conf.Evaluate.CrossValidate {
			result, err = usercf.CrossValidate(cmd.Context(), interactions, cvConfig)
			if err != nil {
				return errors.Trace(err)
			}
		} else {
			score, err := usercf.EvaluateFold(cmd.Context(), interactions, conf.Split.Fold, cvConfig)
			if err != nil {
				return errors.Trace(err)
			}
			result = &usercf.CVResult{Scores: []usercf.Score{score}}
		}
		_ = bar.Finish()
		elapsed := time.Since(start)

		// Render table
		foldNames := lo.Map(folds, func(fold int, _ int) string {
			return strconv.Itoa(fold)
		})
		if err = renderScores(cmd.OutOrStdout(), conf.Recommend.TopN, foldNames, result, conf.Evaluate.CrossValidate); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("complete evaluation",
			zap.String("run_id", runId),
			zap.Duration("elapsed", elapsed))

		// Export metrics
		if metricsFile, _ := cmd.Flags().GetString("metrics-file"); metricsFile != "" {
			if err = usercf.WriteMetrics(metricsFile); err != nil {
				return errors.Trace(err)
			}
			log.Logger().Info("write metrics", zap.String("metrics_file", metricsFile))
		}
		return nil
	},
}

func init() {
	addDataFlags(evaluateCommand.Flags())
	addSplitFlags(evaluateCommand.Flags())
	addRecommendFlags(evaluateCommand.Flags())
	evaluateCommand.Flags().String("precision-denominator", string(usercf.PrecisionRequested), "denominator of precision (requested, returned)")
	evaluateCommand.Flags().String("missing-user", string(usercf.MissingUserSkip), "policy for users absent from the test set (skip, empty, fail)")
	evaluateCommand.Flags().Bool("cross-validate", false, "evaluate fold 0 to folds-1 and aggregate")
	evaluateCommand.Flags().String("metrics-file", "", "write metrics to a file in the Prometheus text format")
	evaluateCommand.Flags().BoolP("quiet", "q", false, "hide progress bar")
}

// countTrainUsers counts the train users of the folds to evaluate. The evaluator
// generates recommendations for each of them.
func countTrainUsers(interactions []dataset.Interaction, cfg *usercf.CVConfig, folds []int) (int, error) {
	var numUsers int
	for _, fold := range folds {
		train, _, err := dataset.Split(interactions, cfg.Folds, fold, cfg.Seed)
		if err != nil {
			return 0, errors.Trace(err)
		}
		numUsers += dataset.NewTrainSet(train).CountUsers()
	}
	return numUsers, nil
}

func newProgressBar(w io.Writer, max int, description string, quiet bool) *progressbar.ProgressBar {
	if quiet {
		return progressbar.DefaultSilent(int64(max), description)
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish())
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', 6, 64)
}

func renderScores(w io.Writer, topN int, folds []string, result *usercf.CVResult, aggregate bool) error {
	table := tablewriter.NewWriter(w)
	table.Header("Fold",
		fmt.Sprintf("Recall@%d", topN),
		fmt.Sprintf("Precision@%d", topN),
		fmt.Sprintf("Coverage@%d", topN),
		fmt.Sprintf("Popularity@%d", topN))
	appendScore := func(name string, score usercf.Score) error {
		return table.Append([]string{
			name,
			formatScore(score.Recall),
			formatScore(score.Precision),
			formatScore(score.Coverage),
			formatScore(score.Popularity),
		})
	}
	for i, score := range result.Scores {
		if err := appendScore(folds[i], score); err != nil {
			return errors.Trace(err)
		}
	}
	if aggregate {
		if err := appendScore(usercf.StatMean, result.Mean); err != nil {
			return errors.Trace(err)
		}
		if err := appendScore(usercf.StatStdDev, result.StdDev); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
