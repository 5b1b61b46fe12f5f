// Package random provides a pseudo-random source whose seed survives
// restarts. Each start uses the stored seed and stores seed+1, so
// consecutive runs produce different sequences.
package random

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Seed uint16 `yaml:"seed"`
}

// Source is a seeded PRNG. Safe for concurrent use.
type Source struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed uint16
}

// Open seeds a Source from the seed stored at path and persists the next
// seed. A missing file or a stored seed of 0 falls back to deviceID. An empty
// path keeps the seed in memory only.
func Open(path string, deviceID uint16, log zerolog.Logger) (*Source, error) {
	stored, err := readSeed(path)
	if err != nil {
		return nil, err
	}

	seed := stored
	if seed == 0 {
		seed = deviceID
	}
	if path != "" {
		if err := writeSeed(path, seed+1); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Uint16("seed", seed).
		Str("path", path).
		Msg("random source seeded")
	return New(seed), nil
}

// New returns a Source seeded with seed, without persistence.
func New(seed uint16) *Source {
	return &Source{
		rng:  rand.New(rand.NewSource(int64(seed))),
		seed: seed,
	}
}

// Seed returns the seed this Source was started with.
func (s *Source) Seed() uint16 {
	return s.seed
}

// Uint32 returns a pseudo-random unsigned 32-bit integer.
func (s *Source) Uint32() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Uint32()
}

// Int32 returns a pseudo-random signed 32-bit integer covering the full range.
func (s *Source) Int32() int32 {
	return int32(s.Uint32())
}

// DeviceID derives a stable non-zero id from a device name.
func DeviceID(name string) uint16 {
	h := fnv.New32a()
	h.Write([]byte(name))
	id := uint16(h.Sum32() ^ h.Sum32()>>16)
	if id == 0 {
		id = 1
	}
	return id
}

func readSeed(path string) (uint16, error) {
	if path == "" {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return f.Seed, nil
}

func writeSeed(path string, seed uint16) error {
	data, err := yaml.Marshal(seedFile{Seed: seed})
	if err != nil {
		return fmt.Errorf("encoding seed: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing seed file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing seed file: %w", err)
	}
	return nil
}
