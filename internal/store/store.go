// Package store implements the durable, atomic persistence of the HSM
// proxy's one configuration record, per spec §4.4.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/craterdog-bali/go-hsm-proxy/internal/errs"
)

const component = "store"

// FileName is the versioned record file name described in spec §3/§6.
const FileName = "HSMProxyv2.yaml"

// State is the lifecycle state persisted alongside the keys.
type State string

const (
	StateKeyless State = "keyless"
	StateLoneKey State = "loneKey"
	StateTwoKeys State = "twoKeys"
)

// Record is the single persisted configuration record (spec §3).
type Record struct {
	Tag              uuid.UUID `yaml:"tag"`
	State            State     `yaml:"state"`
	ProxyKey         []byte    `yaml:"proxyKey,omitempty"`
	PreviousProxyKey []byte    `yaml:"previousProxyKey,omitempty"`
}

// Clone returns a deep copy so callers can mutate without aliasing the
// controller's in-memory record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := &Record{Tag: r.Tag, State: r.State}
	if r.ProxyKey != nil {
		c.ProxyKey = append([]byte(nil), r.ProxyKey...)
	}
	if r.PreviousProxyKey != nil {
		c.PreviousProxyKey = append([]byte(nil), r.PreviousProxyKey...)
	}
	return c
}

// Store reads/writes/deletes the record file in a configured directory.
type Store struct {
	dir    string
	logger *logrus.Logger
}

// New builds a Store rooted at dir. A nil logger falls back to
// logrus.New().
func New(dir string, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{dir: dir, logger: logger}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, FileName)
}

// Load reads the record, returning (nil, false, nil) if no file exists.
func (s *Store) Load() (*Record, bool, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errs.Wrap(component, errs.KindConfigStoreError, "read failed", err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, false, errs.Wrap(component, errs.KindConfigStoreError, "decode failed", err)
	}
	return &rec, true, nil
}

// Store durably writes rec, replacing any existing record. It writes to
// a temp file in the same directory and renames over the target so a
// crash mid-write never leaves a partial record (spec §4.4).
func (s *Store) Store(rec *Record) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return errs.Wrap(component, errs.KindConfigStoreError, "mkdir failed", err)
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return errs.Wrap(component, errs.KindConfigStoreError, "encode failed", err)
	}

	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf(".%s-*.tmp", FileName))
	if err != nil {
		return errs.Wrap(component, errs.KindConfigStoreError, "create temp file failed", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errs.Wrap(component, errs.KindConfigStoreError, "write temp file failed", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errs.Wrap(component, errs.KindConfigStoreError, "close temp file failed", err)
	}

	if err := os.Rename(tmpName, s.path()); err != nil {
		os.Remove(tmpName)
		return errs.Wrap(component, errs.KindConfigStoreError, "atomic rename failed", err)
	}

	s.logger.WithField("path", s.path()).Debug("store: record persisted")
	return nil
}

// Delete removes the record file. Deleting an absent file is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errs.Wrap(component, errs.KindConfigStoreError, "delete failed", err)
	}
	return nil
}
