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

package datautil

import (
	"archive/zip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	file, err := os.Create(path)
	assert.NoError(t, err)
	writer := zip.NewWriter(file)
	for name, content := range files {
		w, err := writer.Create(name)
		assert.NoError(t, err)
		_, err = w.Write([]byte(content))
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())
	assert.NoError(t, file.Close())
}

func TestUnzip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "data.zip")
	writeZip(t, src, map[string]string{"data/u.data": "1\t2\t5\t0\n"})
	dst := filepath.Join(dir, "out")
	fileNames, err := unzip(src, dst)
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dst, "data", "u.data")}, fileNames)
	content, err := os.ReadFile(filepath.Join(dst, "data", "u.data"))
	assert.NoError(t, err)
	assert.Equal(t, "1\t2\t5\t0\n", string(content))
}

func TestUnzipIllegalPath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.zip")
	writeZip(t, src, map[string]string{"../evil.txt": "evil"})
	_, err := unzip(src, filepath.Join(dir, "out"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "evil.txt"))
}

func TestDownloadAndUnzip(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "toy.zip"), map[string]string{"toy/u.data": "1\t2\t5\t0\n"})
	server := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer server.Close()

	oldURL, oldTemp, oldDataset := datasetURL, tempDir, datasetDir
	defer func() {
		datasetURL, tempDir, datasetDir = oldURL, oldTemp, oldDataset
	}()
	datasetURL = server.URL + "/%s.zip"
	tempDir = filepath.Join(dir, "temp")
	datasetDir = filepath.Join(dir, "dataset")

	path, err := DownloadAndUnzip("toy")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(datasetDir, "toy"), path)
	assert.FileExists(t, filepath.Join(path, "u.data"))
	assert.Equal(t, datasetDir, DatasetDir())

	// cached dataset is not downloaded again
	server.Close()
	path, err = DownloadAndUnzip("toy")
	assert.NoError(t, err)
	assert.FileExists(t, filepath.Join(path, "u.data"))

	_, err = DownloadAndUnzip("missing")
	assert.Error(t, err)
}

func TestDownloadNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	_, err := downloadFromUrl(server.URL+"/missing.zip", t.TempDir())
	assert.Error(t, err)
}
