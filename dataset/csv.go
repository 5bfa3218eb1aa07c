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
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gorse-io/usercf/common/log"
	"github.com/gorse-io/usercf/common/util"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// LoadDataFromCSV loads interactions from a CSV file. Each line is
// user<sep>item[<sep>weight[<sep>...]].
func LoadDataFromCSV(fileName, sep string, hasHeader bool) ([]Interaction, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	interactions, err := ReadInteractions(file, sep, hasHeader)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to load %s", fileName)
	}
	log.Logger().Info("load interactions from csv",
		zap.String("csv_file", fileName),
		zap.Int("n_interactions", len(interactions)))
	return interactions, nil
}

// ReadInteractions parses interactions from a reader. Lines with less than
// two fields are ignored. Missing weights default to 1.
func ReadInteractions(r io.Reader, sep string, hasHeader bool) ([]Interaction, error) {
	var (
		interactions []Interaction
		parseErr     error
	)
	scanner := bufio.NewScanner(r)
	err := ReadLines(scanner, sep, func(lineNumber int, fields []string) bool {
		// Ignore header
		if hasHeader && lineNumber == 0 {
			return true
		}
		// Ignore empty line
		if len(fields) < 2 {
			return true
		}
		interaction := NewInteraction(strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]))
		if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
			weight, err := util.ParseFloat[float64](fields[2])
			if err != nil {
				parseErr = errors.Errorf("invalid weight %q at line %d", fields[2], lineNumber+1)
				return false
			}
			interaction.Weight = weight
		}
		interactions = append(interactions, interaction)
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return interactions, nil
}

// WriteInteractions writes interactions as user<sep>item<sep>weight lines, which
// can be read back by ReadInteractions. Ids containing the separator or quotes
// are quoted with inner quotes doubled. Ids containing line breaks are rejected.
func WriteInteractions(w io.Writer, sep string, interactions []Interaction) error {
	if sep == "" {
		return errors.NotValidf("empty separator")
	}
	writer := bufio.NewWriter(w)
	for i, interaction := range interactions {
		userId, err := quoteField(interaction.UserId, sep)
		if err != nil {
			return errors.Annotatef(err, "interaction %d", i)
		}
		itemId, err := quoteField(interaction.ItemId, sep)
		if err != nil {
			return errors.Annotatef(err, "interaction %d", i)
		}
		if _, err = writer.WriteString(userId + sep + itemId + sep +
			strconv.FormatFloat(interaction.Weight, 'g', -1, 64) + "\n"); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(writer.Flush())
}

func quoteField(field, sep string) (string, error) {
	if strings.ContainsAny(field, "\r\n") {
		return "", errors.NotValidf("line break in field %q", field)
	}
	if strings.Contains(field, sep) || strings.Contains(field, `"`) {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`, nil
	}
	return field, nil
}

// ReadLines parse fields of each line for csv file. The separator may be longer
// than one character. A quote left open at the end of input is an error.
func ReadLines(sc *bufio.Scanner, sep string, handler func(int, []string) bool) error {
	if sep == "" {
		return errors.NotValidf("empty separator")
	}
	sepRunes := []rune(sep)
	lineCount := 0               // line number of current position
	quoteStart := 0              // line number where the current quote starts
	fields := make([]string, 0)  // fields for current line
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	for sc.Scan() {
		line := []rune(sc.Text())
		// start of line
		if quoted {
			builder.WriteString("\r\n")
		}
		for i := 0; i < len(line); i++ {
			if !quoted && hasRunePrefix(line[i:], sepRunes) {
				// end of field
				fields = append(fields, builder.String())
				builder.Reset()
				i += len(sepRunes) - 1
			} else if line[i] == '"' {
				if quoted {
					if i+1 >= len(line) || line[i+1] != '"' {
						// end of quoted
						quoted = false
					} else {
						i++
						builder.WriteRune('"')
					}
				} else {
					// start of quoted
					quoted = true
					quoteStart = lineCount
				}
			} else {
				builder.WriteRune(line[i])
			}
		}
		// end of line
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if !handler(lineCount, fields) {
				return nil
			}
			fields = []string{}
		}
		lineCount++
	}
	if err := sc.Err(); err != nil {
		return errors.Trace(err)
	}
	if quoted {
		return errors.Errorf("unterminated quote starting at line %d", quoteStart+1)
	}
	return nil
}

func hasRunePrefix(s, prefix []rune) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}
