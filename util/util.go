// Package util holds small, dependency-light helpers shared across the
// pipeline: a stable hash type, and afero-backed file validation used by
// config and capture file loading.
package util

import (
	"crypto/md5" // #nosec
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

var (
	ErrInvalidPath = errors.New("path cannot be empty string")

	ErrFileDoesNotExist = errors.New("file does not exist")
	ErrFileIsEmtpy      = errors.New("file is empty")
	ErrPathIsDir        = errors.New("given path is a directory, not a file")
)

// FixedString is a stable 16-byte hash of one or more strings, giving a
// deterministic, opaque key. No other package in this module calls it;
// report runs are identified by a uuid (see package report).
type FixedString struct {
	val  string
	Data [16]byte
}

// NewFixedStringHash creates a FixedString from a hash of all the passed in strings
func NewFixedStringHash(args ...string) (FixedString, error) {
	if len(args) == 0 {
		return FixedString{}, errors.New("no arguments provided")
	}

	joined := strings.Join(args, "")
	if joined == "" {
		return FixedString{}, errors.New("joined string is empty")
	}

	// #nosec
	hash := md5.Sum([]byte(joined))

	return FixedString{Data: hash}, nil
}

// NewFixedStringFromHex creates a FixedString from a passed in hex string
func NewFixedStringFromHex(h string) (FixedString, error) {
	if h == "" {
		return FixedString{}, errors.New("hex string is empty")
	}

	data, err := hex.DecodeString(h)
	if err != nil {
		return FixedString{}, fmt.Errorf("error decoding hex string: %w", err)
	}
	var fixed [16]byte
	copy(fixed[:], data)
	return FixedString{Data: fixed}, nil
}

func (bin *FixedString) Hex() string {
	return strings.ToUpper(hex.EncodeToString(bin.Data[:]))
}

// Returns expected type for writing to the database
func (bin FixedString) MarshalBinary() ([]byte, error) {
	return bin.Data[:], nil
}

// Returns expected type for reading from the database
func (bin *FixedString) UnmarshalBinary(b []byte) error {
	copy(bin.Data[:], b)
	return nil
}

// Returns value of FixedString as a pointer, used when sometimes writing to database
func (bin FixedString) Value() (driver.Value, error) {
	return &bin.val, nil
}

// ValidateFile checks that a path exists, is not a directory, and is not empty.
func ValidateFile(afs afero.Fs, file string) error {
	exists, isDir, isEmpty, err := validatePath(afs, file)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("%w: %s", ErrFileDoesNotExist, file)
	}
	if isDir {
		return fmt.Errorf("%w: %s", ErrPathIsDir, file)
	}
	if isEmpty {
		return fmt.Errorf("%w: %s", ErrFileIsEmtpy, file)
	}

	return nil
}

// validatePath validates a given path
func validatePath(afs afero.Fs, path string) (bool, bool, bool, error) {
	var exists, isDir, isEmpty bool

	if afs == nil {
		return exists, isDir, isEmpty, fmt.Errorf("filesystem is nil")
	}
	if path == "" {
		return exists, isDir, isEmpty, ErrInvalidPath
	}

	exists, err := afero.Exists(afs, path)
	if err != nil {
		return exists, isDir, isEmpty, err
	}

	if exists {
		isDir, err = afero.IsDir(afs, path)
		if err != nil {
			return exists, isDir, isEmpty, err
		}

		isEmpty, err = afero.IsEmpty(afs, path)
		if err != nil {
			return exists, isDir, isEmpty, err
		}
	}

	return exists, isDir, isEmpty, nil
}
