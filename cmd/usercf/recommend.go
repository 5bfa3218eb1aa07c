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
	"strconv"
	"time"

	"github.com/gorse-io/usercf/common/log"
	"github.com/gorse-io/usercf/dataset"
	"github.com/gorse-io/usercf/model/usercf"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var recommendCommand = &cobra.Command{
	Use:   "recommend <user>...",
	Short: "Recommend items to users with all feedback as the train set",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		interactions, err := loadInteractions(conf)
		if err != nil {
			return errors.Trace(err)
		}
		start := time.Now()
		train := dataset.NewTrainSet(interactions)
		sim, err := usercf.BuildSimilarityContext(cmd.Context(), train, conf.Evaluate.Jobs)
		if err != nil {
			return errors.Trace(err)
		}
		recommender, err := usercf.NewRecommender(train, sim, conf.Recommend.Neighbors)
		if err != nil {
			return errors.Trace(err)
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("User", "Rank", "Item", "Score")
		for _, user := range args {
			if _, exist := train[user]; !exist {
				log.Logger().Warn("user not found in feedback", zap.String("user_id", user))
				continue
			}
			for i, recommend := range recommender.Recommend(user, conf.Recommend.TopN) {
				if err = table.Append([]string{
					user,
					strconv.Itoa(i + 1),
					recommend.ItemId,
					formatScore(recommend.Score),
				}); err != nil {
					return errors.Trace(err)
				}
			}
		}
		if err = table.Render(); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("complete recommendation",
			zap.Int("n_users", len(args)),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	},
}

func init() {
	addDataFlags(recommendCommand.Flags())
	addRecommendFlags(recommendCommand.Flags())
}
