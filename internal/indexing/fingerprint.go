package indexing

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/domain"
)

// fingerprintHeaderBytes is the "first N bytes" of §3/§4.5's
// FileFingerprint definition: hashing only the header is enough to
// decide "unchanged" without re-reading full file content, at the cost
// of treating two files that differ only after this many bytes as
// identical — an accepted approximation named directly in the contract.
const fingerprintHeaderBytes = 4096

// computeFingerprint implements §4.5 step 4:
// FileFingerprint = (mtime, size, sha256(first 4 KiB)).
func computeFingerprint(path string) (domain.FileFingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.FileFingerprint{}, cerr.Wrap(cerr.IoError, "fingerprint", "failed to open file", err).WithPath(path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.FileFingerprint{}, cerr.Wrap(cerr.IoError, "fingerprint", "failed to stat file", err).WithPath(path)
	}

	h := sha256.New()
	if _, err := io.CopyN(h, f, fingerprintHeaderBytes); err != nil && err != io.EOF {
		return domain.FileFingerprint{}, cerr.Wrap(cerr.IoError, "fingerprint", "failed to read file header", err).WithPath(path)
	}

	return domain.FileFingerprint{
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
		SHA256:  hex.EncodeToString(h.Sum(nil)),
	}, nil
}
