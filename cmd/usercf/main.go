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

	"github.com/gorse-io/usercf/cmd/version"
	"github.com/gorse-io/usercf/common/log"
	"github.com/gorse-io/usercf/config"
	"github.com/gorse-io/usercf/dataset"
	"github.com/gorse-io/usercf/model/usercf"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "usercf",
	Short: "User-based collaborative filtering recommender and offline evaluator.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// setup logger
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	SilenceUsage: true,
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show the version of usercf",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.AddCommand(versionCommand)
	rootCommand.AddCommand(evaluateCommand)
	rootCommand.AddCommand(recommendCommand)
	rootCommand.AddCommand(splitCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

func addDataFlags(flagSet *pflag.FlagSet) {
	flagSet.String("load-builtin", "", "load data from built-in dataset")
	flagSet.String("load-csv", "", "load data from CSV file")
	flagSet.String("csv-sep", "\t", "load CSV file with separator")
	flagSet.Bool("csv-header", false, "load CSV file with header")
}

func addSplitFlags(flagSet *pflag.FlagSet) {
	flagSet.Int("folds", 8, "number of folds")
	flagSet.Int("fold", 0, "index of the test fold")
	flagSet.Int64("seed", 0, "random seed of the splitter")
}

func addRecommendFlags(flagSet *pflag.FlagSet) {
	flagSet.Int("neighbors", 80, "number of similar users")
	flagSet.Int("top-n", 10, "length of recommendation list")
	flagSet.Int("jobs", 1, "number of jobs")
}

// loadConfig reads the configuration file, overrides it with flags set in the
// command line and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Debug("load config", zap.String("config", configPath))
	conf, err := config.ReadConfig(configPath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to load config")
	}
	flags := cmd.Flags()
	if flags.Changed("load-csv") {
		conf.Data.Path, _ = flags.GetString("load-csv")
	}
	if flags.Changed("load-builtin") {
		conf.Data.Builtin, _ = flags.GetString("load-builtin")
		conf.Data.Path = ""
	}
	if flags.Changed("csv-sep") {
		conf.Data.Sep, _ = flags.GetString("csv-sep")
	}
	if flags.Changed("csv-header") {
		conf.Data.Header, _ = flags.GetBool("csv-header")
	}
	if flags.Changed("folds") {
		conf.Split.Folds, _ = flags.GetInt("folds")
	}
	if flags.Changed("fold") {
		conf.Split.Fold, _ = flags.GetInt("fold")
	}
	if flags.Changed("seed") {
		conf.Split.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("neighbors") {
		conf.Recommend.Neighbors, _ = flags.GetInt("neighbors")
	}
	if flags.Changed("top-n") {
		conf.Recommend.TopN, _ = flags.GetInt("top-n")
	}
	if flags.Changed("jobs") {
		conf.Evaluate.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("precision-denominator") {
		denominator, _ := flags.GetString("precision-denominator")
		conf.Evaluate.PrecisionDenominator = usercf.PrecisionDenominator(denominator)
	}
	if flags.Changed("missing-user") {
		policy, _ := flags.GetString("missing-user")
		conf.Evaluate.MissingUser = usercf.MissingUserPolicy(policy)
	}
	if flags.Changed("cross-validate") {
		conf.Evaluate.CrossValidate, _ = flags.GetBool("cross-validate")
	}
	if err = conf.Validate(); err != nil {
		return nil, errors.Annotate(err, "invalid config")
	}
	return conf, nil
}

func loadInteractions(conf *config.Config) ([]dataset.Interaction, error) {
	if conf.Data.Path != "" {
		return dataset.LoadDataFromCSV(conf.Data.Path, conf.Data.Sep, conf.Data.Header)
	}
	return dataset.LoadBuiltin(conf.Data.Builtin)
}
