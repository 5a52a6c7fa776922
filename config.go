package nutrition

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) Contains(val float64) bool {
	return val >= r.Min && val <= r.Max
}

type AnalyzerConfig struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	Calories    Range   `json:"calories"`
	Protein     Range   `json:"protein"`
	Carbs       Range   `json:"carbs"`
	Fats        Range   `json:"fats"`
}

type Config struct {
	Goals    Goals          `json:"goals"`
	Analyzer AnalyzerConfig `json:"analyzer"`
}

func decodeConfig(r io.Reader, cfg *Config) error {
	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}

// DefaultConfig returns the embedded config
func DefaultConfig() (*Config, error) {
	fp, err := Content.Open("etc/nutrition.json")
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	var cfg Config
	if err = decodeConfig(fp, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadConfig decodes a JSON config; fields it omits keep their default values
func ReadConfig(r io.Reader) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if err = decodeConfig(r, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(path string) (*Config, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ReadConfig(fp)
}

// ConfigSource hands out the current config and can reload it when its file changes
type ConfigSource struct {
	mu   sync.RWMutex
	path string
	cfg  *Config
}

// NewConfigSource loads the config at path or the embedded default if path is empty
func NewConfigSource(path string) (*ConfigSource, error) {
	var err error
	var cfg *Config
	switch path {
	case "":
		log.Info().Str("file", "etc/nutrition.json").Msg("config")
		cfg, err = DefaultConfig()
	default:
		log.Info().Str("file", path).Msg("config")
		cfg, err = readConfigFile(path)
	}
	if err != nil {
		return nil, err
	}
	return &ConfigSource{path: path, cfg: cfg}, nil
}

func (s *ConfigSource) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Reload rereads the config file, keeping the current config on error
func (s *ConfigSource) Reload() error {
	if s.path == "" {
		return nil
	}
	cfg, err := readConfigFile(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return nil
}

// Watch reloads the config whenever its file is written until done is closed.
// The directory is watched so editors that replace the file are seen too.
func (s *ConfigSource) Watch(done <-chan struct{}) error {
	if s.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err = w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-done:
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					log.Error().Err(err).Str("file", s.path).Msg("reload")
					continue
				}
				log.Info().Str("file", s.path).Msg("reload")
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("watch")
			}
		}
	}()
	return nil
}
