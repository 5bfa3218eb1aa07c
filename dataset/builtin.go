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
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorse-io/usercf/common/datautil"
	"github.com/gorse-io/usercf/common/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// builtin datasets: name -> (file, separator)
var builtin = map[string]struct {
	file string
	sep  string
}{
	"ml-100k": {"u.data", "\t"},
}

// LoadBuiltin downloads and loads a builtin dataset as implicit feedback. Ratings
// are dropped so that every interaction weighs 1.
func LoadBuiltin(name string) ([]Interaction, error) {
	meta, exist := builtin[name]
	if !exist {
		return nil, errors.NotFoundf("builtin dataset %s", name)
	}
	path, err := datautil.DownloadAndUnzip(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	fileName := filepath.Join(path, meta.file)
	file, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	var interactions []Interaction
	err = ReadLines(bufio.NewScanner(file), meta.sep, func(_ int, fields []string) bool {
		if len(fields) >= 2 {
			interactions = append(interactions, NewInteraction(strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])))
		}
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("load builtin dataset",
		zap.String("name", name),
		zap.Int("n_interactions", len(interactions)))
	return interactions, nil
}
