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

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/usercf/model/usercf"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of usercf.
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Split     SplitConfig     `mapstructure:"split"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Evaluate  EvaluateConfig  `mapstructure:"evaluate"`
}

// DataConfig is the configuration for the dataset.
type DataConfig struct {
	// Path of a CSV file with user, item and optional weight columns.
	Path   string `mapstructure:"path"`
	Sep    string `mapstructure:"sep" validate:"required"`
	Header bool   `mapstructure:"header"`
	// Builtin dataset name used when path is empty.
	Builtin string `mapstructure:"builtin" validate:"omitempty,oneof=ml-100k"`
}

// SplitConfig is the configuration for the train/test splitter.
type SplitConfig struct {
	Folds int   `mapstructure:"folds" validate:"gte=1"`
	Fold  int   `mapstructure:"fold" validate:"gte=0,ltefield=Folds"`
	Seed  int64 `mapstructure:"seed"`
}

// RecommendConfig is the configuration for the recommender.
type RecommendConfig struct {
	Neighbors int `mapstructure:"neighbors" validate:"gte=1"`
	TopN      int `mapstructure:"top_n" validate:"gte=1"`
}

// EvaluateConfig is the configuration for the evaluator.
type EvaluateConfig struct {
	Jobs                 int                         `mapstructure:"jobs" validate:"gte=1"`
	PrecisionDenominator usercf.PrecisionDenominator `mapstructure:"precision_denominator" validate:"oneof=requested returned"`
	MissingUser          usercf.MissingUserPolicy    `mapstructure:"missing_user" validate:"oneof=skip empty fail"`
	CrossValidate        bool                        `mapstructure:"cross_validate"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Sep:     "\t",
			Builtin: "ml-100k",
		},
		Split: SplitConfig{
			Folds: 8,
			Fold:  0,
			Seed:  0,
		},
		Recommend: RecommendConfig{
			Neighbors: 80,
			TopN:      10,
		},
		Evaluate: EvaluateConfig{
			Jobs:                 1,
			PrecisionDenominator: usercf.PrecisionRequested,
			MissingUser:          usercf.MissingUserSkip,
		},
	}
}

func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Trace(err)
	}
	if config.Data.Path == "" && config.Data.Builtin == "" {
		return errors.NotValidf("empty data path and builtin dataset")
	}
	return nil
}

// EvaluateConfig converts the configuration into options of the evaluator.
func (config *Config) EvaluateConfig() *usercf.EvaluateConfig {
	return usercf.NewEvaluateConfig().
		SetJobs(config.Evaluate.Jobs).
		SetPrecisionDenominator(config.Evaluate.PrecisionDenominator).
		SetMissingUserPolicy(config.Evaluate.MissingUser)
}

// CVConfig converts the configuration into options of cross validation.
func (config *Config) CVConfig() *usercf.CVConfig {
	return &usercf.CVConfig{
		Folds:     config.Split.Folds,
		Seed:      config.Split.Seed,
		Neighbors: config.Recommend.Neighbors,
		TopN:      config.Recommend.TopN,
		Evaluate:  config.EvaluateConfig(),
	}
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	// [data]
	viper.SetDefault("data.path", defaultConfig.Data.Path)
	viper.SetDefault("data.sep", defaultConfig.Data.Sep)
	viper.SetDefault("data.header", defaultConfig.Data.Header)
	viper.SetDefault("data.builtin", defaultConfig.Data.Builtin)
	// [split]
	viper.SetDefault("split.folds", defaultConfig.Split.Folds)
	viper.SetDefault("split.fold", defaultConfig.Split.Fold)
	viper.SetDefault("split.seed", defaultConfig.Split.Seed)
	// [recommend]
	viper.SetDefault("recommend.neighbors", defaultConfig.Recommend.Neighbors)
	viper.SetDefault("recommend.top_n", defaultConfig.Recommend.TopN)
	// [evaluate]
	viper.SetDefault("evaluate.jobs", defaultConfig.Evaluate.Jobs)
	viper.SetDefault("evaluate.precision_denominator", defaultConfig.Evaluate.PrecisionDenominator)
	viper.SetDefault("evaluate.missing_user", defaultConfig.Evaluate.MissingUser)
	viper.SetDefault("evaluate.cross_validate", defaultConfig.Evaluate.CrossValidate)
}

type configBinding struct {
	key string
	env string
}

// LoadConfig loads configuration by ReadConfig and validates it.
func LoadConfig(path string) (*Config, error) {
	conf, err := ReadConfig(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}

// ReadConfig reads configuration from a TOML file without validation. An empty
// path loads default values. Environment variables override values from the file.
func ReadConfig(path string) (*Config, error) {
	// set default config
	setDefault()

	// bind environment bindings
	bindings := []configBinding{
		{"data.path", "USERCF_DATA_PATH"},
		{"data.sep", "USERCF_DATA_SEP"},
		{"data.header", "USERCF_DATA_HEADER"},
		{"data.builtin", "USERCF_DATA_BUILTIN"},
		{"split.folds", "USERCF_SPLIT_FOLDS"},
		{"split.fold", "USERCF_SPLIT_FOLD"},
		{"split.seed", "USERCF_SPLIT_SEED"},
		{"recommend.neighbors", "USERCF_RECOMMEND_NEIGHBORS"},
		{"recommend.top_n", "USERCF_RECOMMEND_TOP_N"},
		{"evaluate.jobs", "USERCF_EVALUATE_JOBS"},
		{"evaluate.precision_denominator", "USERCF_EVALUATE_PRECISION_DENOMINATOR"},
		{"evaluate.missing_user", "USERCF_EVALUATE_MISSING_USER"},
		{"evaluate.cross_validate", "USERCF_EVALUATE_CROSS_VALIDATE"},
	}
	for _, binding := range bindings {
		if err := viper.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// load config file
	if path != "" {
		viper.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		defer file.Close()
		if err = viper.ReadConfig(file); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// unmarshal config file
	var conf Config
	if err := viper.Unmarshal(&conf, viper.DecodeHook(escapeSeparatorHookFunc())); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// escapeSeparatorHookFunc turns the escaped tab "\t" of environment variables into a tab.
func escapeSeparatorHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.String {
			return data, nil
		}
		if s, ok := data.(string); ok && s == `\t` {
			return "\t", nil
		}
		return data, nil
	}
}
