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
	"fmt"
	"io"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/gorse-io/usercf/common/log"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var (
	tempDir    string
	datasetDir string
	// datasetURL is the URL template of a zipped dataset.
	datasetURL = "https://cdn.gorse.io/datasets/%s.zip"
)

func init() {
	usr, err := user.Current()
	if err != nil {
		log.Logger().Fatal("failed to get user directory", zap.Error(err))
	}
	datasetDir = filepath.Join(usr.HomeDir, ".usercf", "dataset")
	tempDir = filepath.Join(usr.HomeDir, ".usercf", "temp")
}

// DatasetDir returns the directory where datasets are cached.
func DatasetDir() string {
	return datasetDir
}

// DownloadAndUnzip downloads a dataset if it is not cached and returns the
// directory it is extracted to.
func DownloadAndUnzip(name string) (string, error) {
	url := fmt.Sprintf(datasetURL, name)
	path := filepath.Join(datasetDir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		zipFileName, err := downloadFromUrl(url, tempDir)
		if err != nil {
			return "", errors.Trace(err)
		}
		if _, err := unzip(zipFileName, datasetDir); err != nil {
			return "", errors.Trace(err)
		}
	} else if err != nil {
		return "", errors.Trace(err)
	}
	return path, nil
}

// downloadFromUrl downloads file from URL.
func downloadFromUrl(src, dst string) (string, error) {
	log.Logger().Info("download dataset", zap.String("source", src), zap.String("destination", dst))
	// Extract file name
	tokens := strings.Split(src, "/")
	fileName := filepath.Join(dst, tokens[len(tokens)-1])
	// Create file
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return fileName, errors.Trace(err)
	}
	output, err := os.Create(fileName)
	if err != nil {
		log.Logger().Error("failed to create file", zap.Error(err), zap.String("filename", fileName))
		return fileName, errors.Trace(err)
	}
	defer output.Close()
	// Download file
	response, err := http.Get(src)
	if err != nil {
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", src))
		return fileName, errors.Trace(err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fileName, errors.Errorf("failed to download %s: %s", src, response.Status)
	}
	// Save file
	reader := progressbar.NewReader(response.Body, progressbar.DefaultBytes(
		response.ContentLength,
		"Downloading "+tokens[len(tokens)-1],
	))
	if _, err = io.Copy(output, &reader); err != nil {
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", src))
		return fileName, errors.Trace(err)
	}
	return fileName, nil
}

// unzip zip file.
func unzip(src, dst string) ([]string, error) {
	var fileNames []string
	// Open zip file
	r, err := zip.OpenReader(src)
	if err != nil {
		return fileNames, errors.Trace(err)
	}
	defer r.Close()
	// Extract files
	for _, f := range r.File {
		// Store filename/path for returning and using later on
		filePath := filepath.Join(dst, f.Name)
		// Check for ZipSlip. More Info: http://bit.ly/2MsjAWE
		if !strings.HasPrefix(filePath, filepath.Clean(dst)+string(os.PathSeparator)) {
			return fileNames, errors.Errorf("%s: illegal file path", filePath)
		}
		// Add filename
		fileNames = append(fileNames, filePath)
		if f.FileInfo().IsDir() {
			// Create folder
			if err = os.MkdirAll(filePath, os.ModePerm); err != nil {
				return fileNames, errors.Trace(err)
			}
			continue
		}
		// Create all folders
		if err = os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
			return fileNames, errors.Trace(err)
		}
		if err = extractFile(f, filePath); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return fileNames, nil
}

func extractFile(f *zip.File, filePath string) error {
	rc, err := f.Open()
	if err != nil {
		return errors.Trace(err)
	}
	defer rc.Close()
	outFile, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = io.Copy(outFile, rc); err != nil {
		_ = outFile.Close()
		return errors.Trace(err)
	}
	return errors.Trace(outFile.Close())
}
