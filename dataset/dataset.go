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
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
)

// Interaction is a piece of feedback from a user to an item.
type Interaction struct {
	UserId string
	ItemId string
	Weight float64
}

// NewInteraction creates an implicit interaction with weight 1.
func NewInteraction(userId, itemId string) Interaction {
	return Interaction{UserId: userId, ItemId: itemId, Weight: 1}
}

// TrainSet maps users to the items they interacted with and the interaction weights.
type TrainSet map[string]map[string]float64

// NewTrainSet builds a train set. Weights of duplicated pairs are accumulated.
func NewTrainSet(interactions []Interaction) TrainSet {
	train := make(TrainSet)
	for _, interaction := range interactions {
		items, exist := train[interaction.UserId]
		if !exist {
			items = make(map[string]float64)
			train[interaction.UserId] = items
		}
		items[interaction.ItemId] += interaction.Weight
	}
	return train
}

// Users returns user ids in ascending order.
func (train TrainSet) Users() []string {
	users := lo.Keys(train)
	sort.Strings(users)
	return users
}

// Items returns the distinct items in the train set.
func (train TrainSet) Items() mapset.Set[string] {
	items := mapset.NewThreadUnsafeSet[string]()
	for _, userItems := range train {
		for item := range userItems {
			items.Add(item)
		}
	}
	return items
}

func (train TrainSet) CountUsers() int {
	return len(train)
}

func (train TrainSet) CountItems() int {
	return train.Items().Cardinality()
}

func (train TrainSet) CountFeedback() int {
	return lo.SumBy(lo.Values(train), func(items map[string]float64) int {
		return len(items)
	})
}

// ItemPopularity counts distinct users of each item.
func (train TrainSet) ItemPopularity() map[string]int {
	popularity := make(map[string]int)
	for _, items := range train {
		for item := range items {
			popularity[item]++
		}
	}
	return popularity
}

// Has checks whether a user interacted with an item.
func (train TrainSet) Has(userId, itemId string) bool {
	_, exist := train[userId][itemId]
	return exist
}

// TestSet maps users to the set of items they interacted with.
type TestSet map[string]mapset.Set[string]

// NewTestSet builds a test set. Weights are ignored.
func NewTestSet(interactions []Interaction) TestSet {
	test := make(TestSet)
	for _, interaction := range interactions {
		items, exist := test[interaction.UserId]
		if !exist {
			items = mapset.NewThreadUnsafeSet[string]()
			test[interaction.UserId] = items
		}
		items.Add(interaction.ItemId)
	}
	return test
}

// Get returns the items of a user. The second return value reports whether
// the user exists in the test set.
func (test TestSet) Get(userId string) (mapset.Set[string], bool) {
	items, exist := test[userId]
	return items, exist
}

// Users returns user ids in ascending order.
func (test TestSet) Users() []string {
	users := lo.Keys(test)
	sort.Strings(users)
	return users
}

func (test TestSet) CountUsers() int {
	return len(test)
}

func (test TestSet) CountFeedback() int {
	return lo.SumBy(lo.Values(test), func(items mapset.Set[string]) int {
		return items.Cardinality()
	})
}
