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
	"sort"

	"github.com/gorse-io/usercf/dataset"
	"github.com/juju/errors"
)

// Recommend scores items for a user by the k most similar users:
//
//	rank[i] = \sum_{v \in N_k(u), i \in I(v), i \notin I(u)} w_{uv} r_{vi}
//
// Items the user already interacted with are never returned.
func Recommend(user string, train dataset.TrainSet, sim *Similarity, k int) map[string]float64 {
	rank := make(map[string]float64)
	if k <= 0 {
		return rank
	}
	interacted := train[user]
	for _, neighbor := range sim.TopNeighbors(user, k) {
		wuv := neighbor.Weight
		for item, rvi := range train[neighbor.Value] {
			if _, exist := interacted[item]; exist {
				continue
			}
			rank[item] += wuv * rvi
		}
	}
	return rank
}

// Recommendation is a scored item.
type Recommendation struct {
	ItemId string
	Score  float64
}

// TopN sorts scored items by score in descending order and keeps at most n of
// them. Ties are broken by item id in ascending order. n <= 0 keeps all items.
func TopN(rank map[string]float64, n int) []Recommendation {
	recommends := make([]Recommendation, 0, len(rank))
	for item, score := range rank {
		recommends = append(recommends, Recommendation{ItemId: item, Score: score})
	}
	sort.Slice(recommends, func(i, j int) bool {
		if recommends[i].Score != recommends[j].Score {
			return recommends[i].Score > recommends[j].Score
		}
		return recommends[i].ItemId < recommends[j].ItemId
	})
	if n > 0 && len(recommends) > n {
		recommends = recommends[:n]
	}
	return recommends
}

// Recommender generates top-n recommendations from a train set and a user
// similarity matrix. It is safe for concurrent use.
type Recommender struct {
	train     dataset.TrainSet
	sim       *Similarity
	neighbors int
}

// NewRecommender creates a recommender which looks at k nearest neighbors.
func NewRecommender(train dataset.TrainSet, sim *Similarity, k int) (*Recommender, error) {
	if sim == nil {
		return nil, errors.NotValidf("nil similarity")
	}
	return &Recommender{train: train, sim: sim, neighbors: k}, nil
}

// Recommend returns at most n items for a user.
func (r *Recommender) Recommend(user string, n int) []Recommendation {
	return TopN(Recommend(user, r.train, r.sim, r.neighbors), n)
}

func (r *Recommender) TrainSet() dataset.TrainSet {
	return r.train
}
