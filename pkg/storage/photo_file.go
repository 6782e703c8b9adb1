package storage

import (
	"bufio"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/matst80/slask-gallery/pkg/common/jsoncompat"
	"github.com/matst80/slask-gallery/pkg/types"
)

func isGzipped(path string) bool {
	return strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".jz")
}

// LoadPhotoFile decodes json lines of photos, gzipped when the file ends in
// .gz, and hands them to fn in batches. It returns the number of photos read.
func LoadPhotoFile(path string, batchSize int, fn func([]types.Photo) error) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var reader io.Reader = file
	if isGzipped(path) {
		zipReader, err := gzip.NewReader(file)
		if err != nil {
			return 0, err
		}
		defer zipReader.Close()
		reader = zipReader
	}
	return decodePhotos(bufio.NewReader(reader), batchSize, fn)
}

func decodePhotos(r io.Reader, batchSize int, fn func([]types.Photo) error) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	dec := jsoncompat.NewDecoder(r)
	batch := make([]types.Photo, 0, batchSize)
	total := 0
	for {
		var p types.Photo
		err := dec.Decode(&p)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, err
		}
		batch = append(batch, p)
		total++
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return total, err
			}
			batch = make([]types.Photo, 0, batchSize)
		}
	}
	if len(batch) > 0 {
		return total, fn(batch)
	}
	return total, nil
}

// SavePhotoFile writes photos as json lines, gzipped for .gz paths.
func SavePhotoFile(path string, photos []types.Photo) error {
	tmpFileName := path + ".tmp"
	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}

	var w io.Writer = file
	var zipWriter *gzip.Writer
	if isGzipped(path) {
		zipWriter = gzip.NewWriter(file)
		w = zipWriter
	}
	enc := jsoncompat.NewEncoder(w)
	for i := range photos {
		if err = enc.Encode(&photos[i]); err != nil {
			break
		}
	}
	if zipWriter != nil {
		if closeErr := zipWriter.Close(); err == nil {
			err = closeErr
		}
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpFileName)
		return err
	}
	return os.Rename(tmpFileName, path)
}
