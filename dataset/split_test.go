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

package dataset

import (
	"fmt"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func generateInteractions(numUsers, numItems int) []Interaction {
	var interactions []Interaction
	for i := 0; i < numUsers; i++ {
		for j := 0; j < numItems; j++ {
			if (i+j)%3 == 0 {
				interactions = append(interactions, NewInteraction(fmt.Sprint(i), fmt.Sprint(j)))
			}
		}
	}
	return interactions
}

func TestSplitDeterminism(t *testing.T) {
	interactions := generateInteractions(100, 100)
	train1, test1, err := Split(interactions, 8, 3, 42)
	assert.NoError(t, err)
	train2, test2, err := Split(interactions, 8, 3, 42)
	assert.NoError(t, err)
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
	// another seed gives another partition
	_, test3, err := Split(interactions, 8, 3, 43)
	assert.NoError(t, err)
	assert.NotEqual(t, test1, test3)
}

func TestSplitCompleteness(t *testing.T) {
	interactions := generateInteractions(100, 100)
	for fold := 0; fold <= 4; fold++ {
		train, test, err := Split(interactions, 4, fold, 0)
		assert.NoError(t, err)
		assert.Equal(t, len(interactions), len(train)+len(test))
		// order is preserved in both parts, so merging them restores the input
		merged := make([]Interaction, 0, len(interactions))
		i, j := 0, 0
		for _, interaction := range interactions {
			if i < len(train) && train[i] == interaction {
				merged = append(merged, train[i])
				i++
			} else if j < len(test) && test[j] == interaction {
				merged = append(merged, test[j])
				j++
			}
		}
		assert.Equal(t, interactions, merged)
	}
}

func TestSplitRatio(t *testing.T) {
	interactions := generateInteractions(300, 300)
	// draws from [0, folds] inclusive, so the test ratio is 1/(folds+1)
	_, test, err := Split(interactions, 4, 0, 0)
	assert.NoError(t, err)
	ratio := float64(len(test)) / float64(len(interactions))
	assert.InDelta(t, 0.2, ratio, 0.02)
}

func TestSplitFoldEqualsFolds(t *testing.T) {
	interactions := generateInteractions(100, 100)
	train, test, err := Split(interactions, 4, 4, 0)
	assert.NoError(t, err)
	assert.NotEmpty(t, test)
	assert.Equal(t, len(interactions), len(train)+len(test))
}

func TestSplitInvalid(t *testing.T) {
	_, _, err := Split(nil, 0, 0, 0)
	assert.True(t, errors.Is(err, ErrInvalidFold))
	_, _, err = Split(nil, 4, 5, 0)
	assert.True(t, errors.Is(err, ErrInvalidFold))
	_, _, err = Split(nil, 4, -1, 0)
	assert.True(t, errors.Is(err, ErrInvalidFold))
	train, test, err := Split(nil, 4, 0, 0)
	assert.NoError(t, err)
	assert.Empty(t, train)
	assert.Empty(t, test)
}
