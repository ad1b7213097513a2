package profile

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/OneOfOne/xxhash"
	"github.com/karrick/godirwalk"
	lz4 "github.com/pierrec/lz4/v3"
	"github.com/pkg/errors"

	"github.com/aie-pathfinder/router/cmn/nlog"
)

// localStore loads a device profile from a directory of *.json tile-pattern
// files, combining them into one Device. The combined form is cached on disk
// in os.TempDir() (LZ4-compressed JSON) keyed by an xxhash fingerprint of
// every file's contents. Every Load still walks the directory and reads each
// file to compute that fingerprint; on a cache hit the merged Device is
// decoded from the cache instead of decoding and merging each file.
type localStore struct {
	dir string
}

func newLocalStore(dir string) *localStore { return &localStore{dir: dir} }

func (s *localStore) Load(ctx context.Context) (*Device, error) {
	files, err := s.discover()
	if err != nil {
		return nil, errors.Wrapf(err, "profile: discover %s", s.dir)
	}
	sort.Strings(files)

	digest, contents, err := fingerprint(files)
	if err != nil {
		return nil, err
	}

	cachePath := s.cachePath(digest)
	if dev, err := readCache(cachePath); err == nil {
		nlog.Infof("profile: loaded %s from cache %s", s.dir, cachePath)
		return dev, nil
	}

	dev, err := mergeTiles(contents)
	if err != nil {
		return nil, err
	}

	if err := writeCache(cachePath, dev); err != nil {
		nlog.Warningf("profile: failed to write cache %s: %v", cachePath, err)
	}
	return dev, nil
}

// discover walks s.dir for *.json files using godirwalk, which avoids the
// extra lstat per entry that filepath.Walk performs.
func (s *localStore) discover() ([]string, error) {
	var files []string
	err := godirwalk.Walk(s.dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if filepath.Ext(path) == ".json" {
				files = append(files, path)
			}
			return nil
		},
		Unsorted: true,
	})
	return files, err
}

func fingerprint(files []string) (uint64, [][]byte, error) {
	h := xxhash.New64()
	contents := make([][]byte, len(files))
	for i, f := range files {
		raw, err := os.ReadFile(f)
		if err != nil {
			return 0, nil, errors.Wrapf(err, "profile: read %s", f)
		}
		contents[i] = raw
		_, _ = h.Write(raw)
	}
	return h.Sum64(), contents, nil
}

func mergeTiles(contents [][]byte) (*Device, error) {
	merged := &Device{}
	for i, raw := range contents {
		if i == 0 {
			d, err := decodeDevice(raw)
			if err != nil {
				return nil, err
			}
			merged.MaxCol, merged.MaxRow = d.MaxCol, d.MaxRow
			merged.Tiles = append(merged.Tiles, d.Tiles...)
			continue
		}
		d, err := decodeDevice(raw)
		if err != nil {
			return nil, err
		}
		if d.MaxCol > merged.MaxCol {
			merged.MaxCol = d.MaxCol
		}
		if d.MaxRow > merged.MaxRow {
			merged.MaxRow = d.MaxRow
		}
		merged.Tiles = append(merged.Tiles, d.Tiles...)
	}
	return merged, nil
}

func (s *localStore) cachePath(digest uint64) string {
	return filepath.Join(os.TempDir(), "aie-pathfinder-profile-"+itoaHex(digest)+".lz4")
}

func readCache(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	zr := lz4.NewReader(f)
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, err
	}
	return decodeDevice(buf.Bytes())
}

func writeCache(path string, dev *Device) error {
	raw, err := json.Marshal(dev)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := lz4.NewWriter(f)
	if _, err := zw.Write(raw); err != nil {
		return err
	}
	return zw.Close()
}

func itoaHex(v uint64) string {
	const hexDigits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}
