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
	"os"
	"strconv"

	"github.com/gorse-io/usercf/common/log"
	"github.com/gorse-io/usercf/dataset"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var splitCommand = &cobra.Command{
	Use:   "split",
	Short: "Split feedback into a train set and a test set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		interactions, err := loadInteractions(conf)
		if err != nil {
			return errors.Trace(err)
		}
		trainSet, testSet, err := dataset.Split(interactions, conf.Split.Folds, conf.Split.Fold, conf.Split.Seed)
		if err != nil {
			return errors.Trace(err)
		}
		train := dataset.NewTrainSet(trainSet)
		test := dataset.NewTestSet(testSet)

		// Render table
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("Set", "#User", "#Item", "#Feedback")
		if err = table.Append([]string{"train",
			strconv.Itoa(train.CountUsers()),
			strconv.Itoa(train.CountItems()),
			strconv.Itoa(len(trainSet)),
		}); err != nil {
			return errors.Trace(err)
		}
		if err = table.Append([]string{"test",
			strconv.Itoa(test.CountUsers()),
			strconv.Itoa(dataset.NewTrainSet(testSet).CountItems()),
			strconv.Itoa(len(testSet)),
		}); err != nil {
			return errors.Trace(err)
		}
		if err = table.Render(); err != nil {
			return errors.Trace(err)
		}

		// Save sets
		outputs := []struct {
			flag         string
			interactions []dataset.Interaction
		}{
			{"output-train", trainSet},
			{"output-test", testSet},
		}
		for _, output := range outputs {
			fileName, _ := cmd.Flags().GetString(output.flag)
			if fileName == "" {
				continue
			}
			if err = saveInteractions(fileName, conf.Data.Sep, output.interactions); err != nil {
				return errors.Trace(err)
			}
			log.Logger().Info("save interactions",
				zap.String("csv_file", fileName),
				zap.Int("n_interactions", len(output.interactions)))
		}
		return nil
	},
}

func init() {
	addDataFlags(splitCommand.Flags())
	addSplitFlags(splitCommand.Flags())
	splitCommand.Flags().String("output-train", "", "save the train set to a CSV file")
	splitCommand.Flags().String("output-test", "", "save the test set to a CSV file")
}

func saveInteractions(fileName, sep string, interactions []dataset.Interaction) error {
	file, err := os.Create(fileName)
	if err != nil {
		return errors.Trace(err)
	}
	if err = dataset.WriteInteractions(file, sep, interactions); err != nil {
		_ = file.Close()
		return errors.Trace(err)
	}
	return errors.Trace(file.Close())
}
