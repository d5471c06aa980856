// Package param is the parameter database. It holds BLINK_INTERVAL with a
// validity flag, persists it to a TOML file and notifies when it changes.
package param

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/sweeney/led-blinker/internal/logic"
)

// file is the on-disk layout.
type file struct {
	Params params `toml:"params"`
}

type params struct {
	BlinkInterval *int64 `toml:"blink_interval,omitempty"`
}

// Store holds parameter values. Reads are safe from any goroutine;
// SetBlinkInterval, Reload and Handle notify synchronously on the caller's
// goroutine, so the host calls them from its control loop.
type Store struct {
	path string
	def  *uint32

	mu       sync.RWMutex
	interval uint32
	validity logic.ParamValid

	onUpdate func(logic.ParamID)
}

// New creates a Store backed by path. def is the value used when the file
// has none; nil leaves the parameter UNINIT.
func New(path string, def *uint32) *Store {
	s := &Store{path: path, def: def}
	s.resetToDefault()
	return s
}

func (s *Store) resetToDefault() {
	if s.def != nil {
		s.interval, s.validity = *s.def, logic.ParamValidDefault
		return
	}
	s.interval, s.validity = 0, logic.ParamValidUninit
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// OnUpdate registers the update notification. It replaces any earlier one.
func (s *Store) OnUpdate(fn func(logic.ParamID)) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// BlinkInterval returns the interval and its validity.
func (s *Store) BlinkInterval() (uint32, logic.ParamValid) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval, s.validity
}

// Load reads the file without notifying. A missing file or key leaves the
// default in place. A file that does not decode, or a value outside uint32,
// marks the parameter INVALID and returns the error.
func (s *Store) Load() error {
	v, valid, err := s.read()

	s.mu.Lock()
	s.interval, s.validity = v, valid
	s.mu.Unlock()

	return err
}

func (s *Store) read() (uint32, logic.ParamValid, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.defaultValue()
	}
	if err != nil {
		return 0, logic.ParamValidInvalid, fmt.Errorf("read params %s: %w", s.path, err)
	}

	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return 0, logic.ParamValidInvalid, fmt.Errorf("parse params %s: %w", s.path, err)
	}
	if f.Params.BlinkInterval == nil {
		return s.defaultValue()
	}

	raw := *f.Params.BlinkInterval
	if raw < 0 || raw > math.MaxUint32 {
		return 0, logic.ParamValidInvalid, fmt.Errorf("params %s: blink_interval %d out of range", s.path, raw)
	}
	return uint32(raw), logic.ParamValidValid, nil
}

func (s *Store) defaultValue() (uint32, logic.ParamValid, error) {
	if s.def != nil {
		return *s.def, logic.ParamValidDefault, nil
	}
	return 0, logic.ParamValidUninit, nil
}

// Reload re-reads the file. It notifies, and returns true, only when the
// file yields a VALID value different from the current one. Otherwise the
// current value is kept.
func (s *Store) Reload() (bool, error) {
	v, valid, err := s.read()
	if err != nil {
		return false, err
	}
	if valid != logic.ParamValidValid {
		return false, nil
	}

	s.mu.Lock()
	changed := s.validity != logic.ParamValidValid || s.interval != v
	s.interval, s.validity = v, valid
	fn := s.onUpdate
	s.mu.Unlock()

	if changed && fn != nil {
		fn(logic.ParamBlinkInterval)
	}
	return changed, nil
}

// SetBlinkInterval stores v as VALID and notifies.
func (s *Store) SetBlinkInterval(v uint32) {
	s.mu.Lock()
	s.interval, s.validity = v, logic.ParamValidValid
	fn := s.onUpdate
	s.mu.Unlock()

	if fn != nil {
		fn(logic.ParamBlinkInterval)
	}
}

// Save writes the current value to the file. Only VALID values are written;
// a DEFAULT or UNINIT parameter saves an empty table.
func (s *Store) Save() error {
	var f file
	s.mu.RLock()
	if s.validity == logic.ParamValidValid {
		v := int64(s.interval)
		f.Params.BlinkInterval = &v
	}
	s.mu.RUnlock()

	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create params directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".params-*.toml")
	if err != nil {
		return fmt.Errorf("create temp params: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write params: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close params: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace params: %w", err)
	}
	return nil
}

// Handle executes the parameter commands.
func (s *Store) Handle(cmd logic.Command) (logic.Response, bool) {
	switch cmd.Opcode {
	case logic.OpBlinkIntervalSet:
		v, err := strconv.ParseUint(cmd.Arg, 10, 32)
		if err != nil {
			return logic.RespFormatError, true
		}
		s.SetBlinkInterval(uint32(v))
		return logic.RespOK, true

	case logic.OpBlinkIntervalSave:
		if err := s.Save(); err != nil {
			return logic.RespExecutionError, true
		}
		return logic.RespOK, true
	}
	return "", false
}
