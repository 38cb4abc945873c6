package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ManifestFileName is the reserved name of the metadata file. Its storage
// transaction id becomes the NFT's URI.
const ManifestFileName = "manifest.json"

type File struct {
	Name string
	Data []byte
}

// ReadFile loads a file from disk, naming it by its base name.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrapf(err, "failed to read %s", path)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// Hash is the hex sha256 of the contents. It is recorded on chain as a memo
// alongside the storage payment.
func (f File) Hash() string {
	sum := sha256.Sum256(f.Data)
	return hex.EncodeToString(sum[:])
}

func totalSize(files []File) uint64 {
	var total uint64
	for _, f := range files {
		total += uint64(len(f.Data))
	}
	return total
}
