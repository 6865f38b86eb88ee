package index

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/specassist/internal/corpus"
)

// Layout of an index directory:
//
//	CURRENT                        build id of the published build
//	builds/<build_id>/manifest.json
//	builds/<build_id>/metadata.jsonl
//	builds/<build_id>/vectors.f32
const (
	CurrentFile  = "CURRENT"
	BuildsDir    = "builds"
	ManifestFile = "manifest.json"
	MetadataFile = "metadata.jsonl"
	VectorsFile  = "vectors.f32"
)

// keepBuilds is the number of build directories left after a Save: the new
// build and the one it replaced.
const keepBuilds = 2

var (
	// ErrNoSnapshot is returned by Load when the directory has no published build.
	ErrNoSnapshot = fmt.Errorf("%w: no snapshot found", corpus.ErrEmptyIndex)

	// ErrBuildMismatch is returned by Load when the files it reads do not all
	// belong to the build named by CURRENT.
	ErrBuildMismatch = fmt.Errorf("%w: snapshot files do not belong to one build", corpus.ErrValidation)
)

// BuildDir is the directory holding the files of one build.
func BuildDir(dir, buildID string) string {
	return filepath.Join(dir, BuildsDir, buildID)
}

// Save writes snap into its own build directory under dir and then points
// CURRENT at it with a single rename. Readers see either the previous build
// or the new one, never a mix. The manifest records checksums of the
// metadata and vector files. Older build directories are removed afterwards.
// Save assumes one writer per index directory.
func Save(dir string, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	id := snap.Manifest.BuildID
	if err := checkBuildID(id); err != nil {
		return err
	}
	bdir := BuildDir(dir, id)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("create build dir: %w", err)
	}

	m := snap.Manifest
	sum, err := writeAtomic(filepath.Join(bdir, MetadataFile), func(w io.Writer) error {
		return corpus.WriteJSONL(w, snap.Records)
	})
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	m.MetadataSHA256 = sum

	sum, err = writeAtomic(filepath.Join(bdir, VectorsFile), func(w io.Writer) error {
		return writeVectors(w, snap.Vectors)
	})
	if err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	m.VectorsSHA256 = sum

	if _, err := writeAtomic(filepath.Join(bdir, ManifestFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	prev, _ := readCurrent(dir)
	if _, err := writeAtomic(filepath.Join(dir, CurrentFile), func(w io.Writer) error {
		_, err := io.WriteString(w, id+"\n")
		return err
	}); err != nil {
		return fmt.Errorf("switch current build: %w", err)
	}

	pruneBuilds(dir, id, prev)
	return nil
}

// Load reads and validates the build named by CURRENT in dir.
func Load(dir string) (*Snapshot, error) {
	id, err := readCurrent(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s", ErrNoSnapshot, dir)
	}
	if err != nil {
		return nil, err
	}
	bdir := BuildDir(dir, id)

	data, err := os.ReadFile(filepath.Join(bdir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.BuildID != id {
		return nil, fmt.Errorf("%w: %s names %s, manifest has %s", ErrBuildMismatch, CurrentFile, id, m.BuildID)
	}

	meta, err := readChecked(filepath.Join(bdir, MetadataFile), m.MetadataSHA256)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	records, err := corpus.ReadJSONL[corpus.Record](bytes.NewReader(meta))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	raw, err := readChecked(filepath.Join(bdir, VectorsFile), m.VectorsSHA256)
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	vectors, err := decodeVectors(raw, m.Dimension)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Manifest: m, Vectors: vectors, Records: records}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

func checkBuildID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: invalid build id %q", corpus.ErrValidation, id)
	}
	return nil
}

func readCurrent(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, CurrentFile))
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(data))
	if err := checkBuildID(id); err != nil {
		return "", fmt.Errorf("%s: %w", CurrentFile, err)
	}
	return id, nil
}

// readChecked reads path and compares its SHA-256 with want.
func readChecked(path, want string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != want {
		return nil, fmt.Errorf("%w: %s checksum %s, manifest has %q", ErrBuildMismatch, filepath.Base(path), got, want)
	}
	return data, nil
}

// pruneBuilds removes every build directory except keep and prev.
func pruneBuilds(dir, keep, prev string) {
	entries, err := os.ReadDir(filepath.Join(dir, BuildsDir))
	if err != nil || len(entries) <= keepBuilds {
		return
	}
	for _, e := range entries {
		if name := e.Name(); name != keep && name != prev {
			os.RemoveAll(filepath.Join(dir, BuildsDir, name))
		}
	}
}

// writeAtomic writes to a temp file next to path, renames it into place and
// returns the hex SHA-256 of what was written.
func writeAtomic(path string, write func(io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	h := sha256.New()
	bw := bufio.NewWriter(io.MultiWriter(tmp, h))
	if err := write(bw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeVectors writes rows as little-endian float32, row-major, no header.
func writeVectors(w io.Writer, vectors [][]float32) error {
	var buf [4]byte
	for _, row := range vectors {
		for _, x := range row {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(x))
			if _, err := w.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeVectors(data []byte, dim int) ([][]float32, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: manifest dimension %d", corpus.ErrDimensionMismatch, dim)
	}
	rowBytes := 4 * dim
	if len(data)%rowBytes != 0 {
		return nil, fmt.Errorf("%w: %s size %d is not a multiple of %d", corpus.ErrLengthMismatch, VectorsFile, len(data), rowBytes)
	}

	n := len(data) / rowBytes
	flat := make([]float32, n*dim)
	for i := range flat {
		flat[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return vectors, nil
}
