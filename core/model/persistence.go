package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// SaveModel gob-encodes m into filename.
//
// Only exported fields survive, so estimators keep their fitted parameters
// exported and rebuild loggers in their constructors.
func SaveModel(m interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return SaveModelToWriter(m, file)
}

// SaveModelToWriter gob-encodes m into w.
func SaveModelToWriter(m interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// LoadModel decodes a gob file into m, which must be a pointer to an estimator
// created by its constructor.
func LoadModel(m interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return LoadModelFromReader(m, file)
}

// LoadModelFromReader decodes gob data from r into m.
func LoadModelFromReader(m interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return fmt.Errorf("failed to decode model: %w", err)
	}
	return nil
}
