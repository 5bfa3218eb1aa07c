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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorse-io/usercf/dataset"
	"github.com/gorse-io/usercf/model/usercf"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func writeFeedback(t *testing.T) string {
	var builder strings.Builder
	for i := 0; i < 40; i++ {
		for j := 0; j < 30; j++ {
			if (i+j)%3 == 0 || (i*j)%7 == 1 {
				builder.WriteString(fmt.Sprintf("u%d,i%d\n", i, j))
			}
		}
	}
	path := filepath.Join(t.TempDir(), "feedback.csv")
	assert.NoError(t, os.WriteFile(path, []byte(builder.String()), 0644))
	return path
}

// execute runs the root command with arguments and resets flags afterwards.
func execute(t *testing.T, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	rootCommand.SetOut(&stdout)
	rootCommand.SetErr(&stderr)
	rootCommand.SetArgs(args)
	defer resetFlags(rootCommand)
	err := rootCommand.Execute()
	return stdout.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		_ = flag.Value.Set(flag.DefValue)
		flag.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func TestVersion(t *testing.T) {
	stdout, err := execute(t, "version")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Go version")
}

func TestEvaluate(t *testing.T) {
	path := writeFeedback(t)
	metricsFile := filepath.Join(t.TempDir(), "usercf.prom")
	stdout, err := execute(t, "evaluate", "-q",
		"--load-csv", path, "--csv-sep", ",",
		"--folds", "4", "--fold", "1", "--seed", "7",
		"--neighbors", "5", "--top-n", "3", "--jobs", "2",
		"--metrics-file", metricsFile)
	assert.NoError(t, err)
	assert.Contains(t, strings.ToLower(stdout), "recall@3")
	assert.NotContains(t, strings.ToLower(stdout), "mean")
	metrics, err := os.ReadFile(metricsFile)
	assert.NoError(t, err)
	assert.Contains(t, string(metrics), `usercf_evaluate_score{fold="1",metric="recall"}`)
}

func TestCrossValidate(t *testing.T) {
	path := writeFeedback(t)
	stdout, err := execute(t, "evaluate", "-q",
		"--load-csv", path, "--csv-sep", ",",
		"--folds", "3", "--neighbors", "5", "--top-n", "3",
		"--precision-denominator", "returned", "--cross-validate")
	assert.NoError(t, err)
	assert.Contains(t, strings.ToLower(stdout), "mean")
	assert.Contains(t, strings.ToLower(stdout), "std")
}

func TestEvaluateInvalid(t *testing.T) {
	path := writeFeedback(t)
	_, err := execute(t, "evaluate", "-q", "--load-csv", path, "--csv-sep", ",", "--missing-user", "unknown")
	assert.Error(t, err)
	_, err = execute(t, "evaluate", "-q", "--load-csv", path, "--csv-sep", ",", "--folds", "2", "--fold", "3")
	assert.Error(t, err)
}

func TestRecommend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.csv")
	assert.NoError(t, os.WriteFile(path, []byte("A,x\nA,y\nB,y\nB,z\n"), 0644))
	stdout, err := execute(t, "recommend", "A", "C", "--load-csv", path, "--csv-sep", ",", "--neighbors", "1", "--top-n", "1")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "z")
	assert.Contains(t, stdout, "0.500000")

	_, err = execute(t, "recommend")
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	path := writeFeedback(t)
	dir := t.TempDir()
	trainFile := filepath.Join(dir, "train.csv")
	testFile := filepath.Join(dir, "test.csv")
	stdout, err := execute(t, "split",
		"--load-csv", path, "--csv-sep", ",",
		"--folds", "4", "--fold", "2", "--seed", "1",
		"--output-train", trainFile, "--output-test", testFile)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "train")

	interactions, err := dataset.LoadDataFromCSV(path, ",", false)
	assert.NoError(t, err)
	trainSet, err := dataset.LoadDataFromCSV(trainFile, ",", false)
	assert.NoError(t, err)
	testSet, err := dataset.LoadDataFromCSV(testFile, ",", false)
	assert.NoError(t, err)
	expectedTrain, expectedTest, err := dataset.Split(interactions, 4, 2, 1)
	assert.NoError(t, err)
	assert.Equal(t, expectedTrain, trainSet)
	assert.Equal(t, expectedTest, testSet)
}

func TestConfigOverriddenByFlags(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	assert.NoError(t, os.WriteFile(configPath, []byte("[data]\nbuiltin = \"\"\nsep = \",\"\n"), 0644))
	path := filepath.Join(t.TempDir(), "feedback.csv")
	assert.NoError(t, os.WriteFile(path, []byte("A,x\nA,y\nB,y\nB,z\n"), 0644))

	// neither path nor builtin
	_, err := execute(t, "recommend", "A", "-c", configPath)
	assert.Error(t, err)

	stdout, err := execute(t, "recommend", "A", "-c", configPath, "--load-csv", path, "--neighbors", "1", "--top-n", "1")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "z")
}

func TestCountTrainUsers(t *testing.T) {
	// every user has a single interaction, so test users are absent from the train set
	interactions := make([]dataset.Interaction, 100)
	for i := range interactions {
		interactions[i] = dataset.NewInteraction(fmt.Sprintf("u%d", i), "x")
	}
	cfg := &usercf.CVConfig{Folds: 4, Seed: 7}
	expected := 0
	for fold := 0; fold < cfg.Folds; fold++ {
		train, _, err := dataset.Split(interactions, cfg.Folds, fold, cfg.Seed)
		assert.NoError(t, err)
		expected += dataset.NewTrainSet(train).CountUsers()
	}
	numUsers, err := countTrainUsers(interactions, cfg, []int{0, 1, 2, 3})
	assert.NoError(t, err)
	assert.Equal(t, expected, numUsers)
	assert.Less(t, numUsers, len(interactions)*cfg.Folds)

	_, err = countTrainUsers(interactions, cfg, []int{5})
	assert.Error(t, err)
}
