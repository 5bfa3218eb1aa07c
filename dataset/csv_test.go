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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadLines(t *testing.T) {
	text := "1,\"xxx,yyy\",\"\"\"aaa\"\"\"\n" +
		"2,\"xxx\nyyy\",\"bbb\"\"\"\n"
	scanner := bufio.NewScanner(strings.NewReader(text))
	var lines [][]string
	err := ReadLines(scanner, ",", func(i int, fields []string) bool {
		lines = append(lines, fields)
		return true
	})
	assert.NoError(t, err)
	assert.Equal(t, [][]string{
		{"1", "xxx,yyy", "\"aaa\""},
		{"2", "xxx\r\nyyy", "bbb\""},
	}, lines)
}

func TestReadInteractions(t *testing.T) {
	text := "user\titem\trating\n" +
		"1\t10\t5\n" +
		"1\t20\n" +
		"\n" +
		"2\t10\t2.5\t881250949\n"
	interactions, err := ReadInteractions(strings.NewReader(text), "\t", true)
	assert.NoError(t, err)
	assert.Equal(t, []Interaction{
		{UserId: "1", ItemId: "10", Weight: 5},
		{UserId: "1", ItemId: "20", Weight: 1},
		{UserId: "2", ItemId: "10", Weight: 2.5},
	}, interactions)
}

func TestReadInteractionsInvalidWeight(t *testing.T) {
	text := "1,10,1\n2,20,abc\n"
	_, err := ReadInteractions(strings.NewReader(text), ",", false)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadDataFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.csv")
	err := os.WriteFile(path, []byte("A,x\nA,y\nB,y\nB,z\n"), 0644)
	assert.NoError(t, err)
	interactions, err := LoadDataFromCSV(path, ",", false)
	assert.NoError(t, err)
	assert.Len(t, interactions, 4)
	assert.Equal(t, NewInteraction("B", "z"), interactions[3])

	_, err = LoadDataFromCSV(filepath.Join(t.TempDir(), "missing.csv"), ",", false)
	assert.Error(t, err)
}

func TestWriteInteractions(t *testing.T) {
	interactions := []Interaction{
		{UserId: "1", ItemId: "10", Weight: 5},
		{UserId: "2", ItemId: "20", Weight: 2.5},
	}
	var builder strings.Builder
	assert.NoError(t, WriteInteractions(&builder, ",", interactions))
	assert.Equal(t, "1,10,5\n2,20,2.5\n", builder.String())
	read, err := ReadInteractions(strings.NewReader(builder.String()), ",", false)
	assert.NoError(t, err)
	assert.Equal(t, interactions, read)
}

func TestReadInteractionsMultiCharSeparator(t *testing.T) {
	text := "1::10::5\n2::20::3\n3::a:b\n"
	interactions, err := ReadInteractions(strings.NewReader(text), "::", false)
	assert.NoError(t, err)
	assert.Equal(t, []Interaction{
		{UserId: "1", ItemId: "10", Weight: 5},
		{UserId: "2", ItemId: "20", Weight: 3},
		{UserId: "3", ItemId: "a:b", Weight: 1},
	}, interactions)
}

func TestReadLinesUnterminatedQuote(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("u1,\"a\nu2,c\n"))
	var lines [][]string
	err := ReadLines(scanner, ",", func(i int, fields []string) bool {
		lines = append(lines, fields)
		return true
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
	assert.Empty(t, lines)

	_, err = ReadInteractions(strings.NewReader("u1,a\"b\nu2,c\n"), ",", false)
	assert.Error(t, err)
}

func TestReadLinesEmptySeparator(t *testing.T) {
	err := ReadLines(bufio.NewScanner(strings.NewReader("a,b\n")), "", func(int, []string) bool { return true })
	assert.Error(t, err)
}

func TestWriteInteractionsQuoted(t *testing.T) {
	interactions := []Interaction{
		{UserId: "u1", ItemId: `a"b`, Weight: 1},
		{UserId: "u,2", ItemId: "c", Weight: 2},
		{UserId: "u3", ItemId: `"d"`, Weight: 0.5},
	}
	var builder strings.Builder
	assert.NoError(t, WriteInteractions(&builder, ",", interactions))
	assert.Equal(t, "u1,\"a\"\"b\",1\n\"u,2\",c,2\nu3,\"\"\"d\"\"\",0.5\n", builder.String())
	read, err := ReadInteractions(strings.NewReader(builder.String()), ",", false)
	assert.NoError(t, err)
	assert.Equal(t, interactions, read)

	// multi-character separator
	builder.Reset()
	assert.NoError(t, WriteInteractions(&builder, "::", []Interaction{{UserId: "a::b", ItemId: "c", Weight: 1}}))
	read, err = ReadInteractions(strings.NewReader(builder.String()), "::", false)
	assert.NoError(t, err)
	assert.Equal(t, []Interaction{{UserId: "a::b", ItemId: "c", Weight: 1}}, read)

	// line breaks cannot be read back
	assert.Error(t, WriteInteractions(&builder, ",", []Interaction{{UserId: "u\n1", ItemId: "c", Weight: 1}}))
}
