package props

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// hashChunkSize is the read size used when streaming a file through md5
const hashChunkSize = 1 << 20

// FileProperties describes one side of a reconciliation: the content hash,
// size and modification time of a local file or remote object.
// Hash is always the canonical lowercase-hex rendering of the md5 digest,
// or empty when the backend did not provide one.
type FileProperties struct {
	Hash    string
	Size    int64
	ModTime time.Time
}

// HasHash reports whether a content hash is available for comparison.
func (f FileProperties) HasHash() bool {
	return f.Hash != ""
}

// Prober computes FileProperties for local files. Hash results are memoized
// in an LRU keyed by (path, size, mtime), so a file only gets rehashed after
// it actually changes.
type Prober struct {
	cache *lru.Cache[string, string]
}

// NewProber creates a prober with a hash cache of the given size.
// A size of zero disables caching.
func NewProber(cacheSize int) (*Prober, error) {
	p := &Prober{}
	if cacheSize > 0 {
		cache, err := lru.New[string, string](cacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}
	return p, nil
}

// Probe stats and hashes the file at path. The returned error wraps
// fs.ErrNotExist when the file is missing.
func (p *Prober) Probe(path string) (FileProperties, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileProperties{}, fmt.Errorf("probe %s: %w", path, err)
	}
	if info.IsDir() {
		return FileProperties{}, fmt.Errorf("probe %s: is a directory", path)
	}

	result := FileProperties{
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	cacheKey := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if p.cache != nil {
		if hash, ok := p.cache.Get(cacheKey); ok {
			result.Hash = hash
			return result, nil
		}
	}

	hash, err := hashFile(path)
	if err != nil {
		return FileProperties{}, fmt.Errorf("probe %s: %w", path, err)
	}
	result.Hash = hash

	if p.cache != nil {
		p.cache.Add(cacheKey, hash)
	}

	return result, nil
}

// hashFile streams the file through md5 in fixed-size chunks. Whole-file
// hashing is done here rather than trusting backend-computed hashes, which
// are unreliable for large objects.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	digest := md5.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(digest, f, buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

// NormalizeHash converts an md5 digest rendered as either hex or standard
// base64 into the canonical lowercase-hex form. Object stores report hashes
// in different encodings; both sides must be canonicalized before any
// equality check or every comparison silently fails.
func NormalizeHash(s string) (string, error) {
	s = strings.Trim(strings.TrimSpace(s), "\"")
	if s == "" {
		return "", fmt.Errorf("empty hash")
	}

	if len(s) == md5.Size*2 && isHexString(s) {
		return strings.ToLower(s), nil
	}

	if raw, err := base64.StdEncoding.DecodeString(s); err == nil && len(raw) == md5.Size {
		return hex.EncodeToString(raw), nil
	}

	return "", fmt.Errorf("unrecognized hash encoding: %q", s)
}

func isHexString(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
