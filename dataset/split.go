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
	"math/rand"

	"github.com/juju/errors"
)

const ErrInvalidFold = errors.ConstError("invalid fold")

// Split partitions interactions into a train set and a test set. A generator
// seeded by seed draws a uniform integer in [0, folds] for every interaction,
// and the interaction goes to the test set if the integer equals fold. Note that
// there are folds+1 possible outcomes, so running fold = 0..folds-1 does not
// cover every interaction exactly once.
func Split(interactions []Interaction, folds, fold int, seed int64) (train, test []Interaction, err error) {
	if folds < 1 {
		return nil, nil, errors.Annotatef(ErrInvalidFold, "folds must be positive, got %d", folds)
	}
	if fold < 0 || fold > folds {
		return nil, nil, errors.Annotatef(ErrInvalidFold, "fold must be in [0, %d], got %d", folds, fold)
	}
	rng := rand.New(rand.NewSource(seed))
	train = make([]Interaction, 0, len(interactions))
	test = make([]Interaction, 0, len(interactions)/(folds+1)+1)
	for _, interaction := range interactions {
		if rng.Intn(folds+1) == fold {
			test = append(test, interaction)
		} else {
			train = append(train, interaction)
		}
	}
	return train, test, nil
}
