// Package hashutil computes the content digests used to track installed
// files.
package hashutil

import (
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/types"
)

// Prefix is prepended to every digest so the algorithm travels with it.
const Prefix = "sha256:"

// Checksum returns the SHA256 digest of data as "sha256:<hex>".
func Checksum(data []byte) string {
	return fmt.Sprintf("%s%x", Prefix, sha256.Sum256(data))
}

// CalculateFileChecksum calculates the SHA256 checksum of a file.
// A missing file is reported as ErrFileNotFound, any other read failure as
// ErrPermissionOrIO.
func CalculateFileChecksum(fs types.FS, path string) (string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(err, errors.ErrFileNotFound, "cannot checksum missing file").
				WithDetail("path", path)
		}
		return "", errors.Wrap(err, errors.ErrPermissionOrIO, "cannot read file for checksum").
			WithDetail("path", path)
	}
	return Checksum(data), nil
}
