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
	"context"
	"math"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/usercf/common/heap"
	"github.com/gorse-io/usercf/common/log"
	"github.com/gorse-io/usercf/common/parallel"
	"github.com/gorse-io/usercf/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// InvertedIndex maps items to the users who interacted with them.
type InvertedIndex map[string]mapset.Set[string]

// BuildInvertedIndex inverts a train set.
func BuildInvertedIndex(train dataset.TrainSet) InvertedIndex {
	index := make(InvertedIndex)
	for user, items := range train {
		for item := range items {
			users, exist := index[item]
			if !exist {
				users = mapset.NewThreadUnsafeSet[string]()
				index[item] = users
			}
			users.Add(user)
		}
	}
	return index
}

// sparseCounter is a sparse user x user counter. Missing entries read as zero
// and rows are created on first write.
type sparseCounter map[string]map[string]int

func (c sparseCounter) Add(u, v string, delta int) {
	row, exist := c[u]
	if !exist {
		row = make(map[string]int)
		c[u] = row
	}
	row[v] += delta
}

func (c sparseCounter) Get(u, v string) int {
	return c[u][v]
}

// countCoOccurrence counts co-occurrence C[u][v] of every ordered pair of distinct
// users sharing an item and the degree N[u], the number of item user sets u belongs to.
func countCoOccurrence(index InvertedIndex) (sparseCounter, map[string]int) {
	cooccurrence := make(sparseCounter)
	degree := make(map[string]int)
	for _, users := range index {
		members := users.ToSlice()
		for _, u := range members {
			degree[u]++
			for _, v := range members {
				if u != v {
					cooccurrence.Add(u, v, 1)
				}
			}
		}
	}
	return cooccurrence, degree
}

// Similarity is a user x user similarity matrix. It must not be modified after
// construction, so it is safe for concurrent reads.
type Similarity struct {
	matrix map[string]map[string]float64
}

// NewSimilarity wraps a precomputed similarity matrix.
func NewSimilarity(matrix map[string]map[string]float64) *Similarity {
	if matrix == nil {
		matrix = make(map[string]map[string]float64)
	}
	return &Similarity{matrix: matrix}
}

// BuildSimilarity computes cosine similarity between users' item indicator vectors.
func BuildSimilarity(train dataset.TrainSet) *Similarity {
	sim, err := BuildSimilarityContext(context.Background(), train, 1)
	if err != nil {
		// unreachable without cancellation
		panic(err)
	}
	return sim
}

// BuildSimilarityContext computes the similarity matrix with nJobs workers:
//
//	W[u][v] = C[u][v] / sqrt(N[u] * N[v])
//
// C[u][v] is the number of items both u and v interacted with.
// N[u] is the number of items u interacted with.
func BuildSimilarityContext(ctx context.Context, train dataset.TrainSet, nJobs int) (*Similarity, error) {
	start := time.Now()
	index := BuildInvertedIndex(train)
	cooccurrence, degree := countCoOccurrence(index)
	// normalize rows in parallel, each worker owns its rows
	users := lo.Keys(cooccurrence)
	sort.Strings(users)
	rows := make([]map[string]float64, len(users))
	err := parallel.Parallel(ctx, len(users), nJobs, func(_, jobId int) error {
		u := users[jobId]
		row := make(map[string]float64, len(cooccurrence[u]))
		for v, c := range cooccurrence[u] {
			row[v] = float64(c) / math.Sqrt(float64(degree[u])*float64(degree[v]))
		}
		rows[jobId] = row
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	matrix := make(map[string]map[string]float64, len(users))
	for i, u := range users {
		matrix[u] = rows[i]
	}
	sim := NewSimilarity(matrix)
	elapsed := time.Since(start)
	BuildSimilaritySeconds.Set(elapsed.Seconds())
	log.Logger().Debug("complete building user similarity",
		zap.Int("n_users", train.CountUsers()),
		zap.Int("n_items", len(index)),
		zap.Int("n_pairs", sim.CountPairs()),
		zap.Duration("elapsed", elapsed))
	return sim, nil
}

// Get returns the similarity between u and v. The second return value is false
// if u and v never co-occurred.
func (s *Similarity) Get(u, v string) (float64, bool) {
	score, exist := s.matrix[u][v]
	return score, exist
}

// Neighbors returns all users similar to u. The returned map must not be modified.
func (s *Similarity) Neighbors(u string) map[string]float64 {
	return s.matrix[u]
}

// Users returns users with at least one neighbor in ascending order.
func (s *Similarity) Users() []string {
	users := lo.Keys(s.matrix)
	sort.Strings(users)
	return users
}

// CountPairs counts ordered pairs with defined similarity.
func (s *Similarity) CountPairs() int {
	return lo.SumBy(lo.Values(s.matrix), func(row map[string]float64) int {
		return len(row)
	})
}

// TopNeighbors returns the k most similar users to u in descending order of
// similarity. Ties are broken by user id in ascending order.
func (s *Similarity) TopNeighbors(u string, k int) []heap.Elem[string, float64] {
	filter := heap.NewTopKFilter[string, float64](k)
	for v, score := range s.matrix[u] {
		filter.Push(v, score)
	}
	return filter.PopAll()
}
