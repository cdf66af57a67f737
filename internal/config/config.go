// Package config loads the site-wide configuration and describes the
// directory layout of a build.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
)

// Site holds the values every page generator reads. It is loaded once per
// build and never mutated afterwards.
type Site struct {
	Twitch  string `yaml:"twitch" toml:"twitch" json:"twitch"`
	YouTube string `yaml:"youtube" toml:"youtube" json:"youtube"`
	Discord string `yaml:"discord" toml:"discord" json:"discord"`
	BaseURL string `yaml:"base_url" toml:"base_url" json:"base_url"`
}

// LoadSite reads the site configuration from path. The decoder is chosen by
// file extension; environment variables in the file are expanded before
// decoding.
func LoadSite(path string) (*Site, error) {
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		slog.Debug("No .env file loaded", "error", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.NotFoundError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read config file").
			WithContext("path", path).
			Fatal().
			Build()
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	var site Site
	if err := decode(path, expanded, &site); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
			WithContext("path", path).
			Fatal().
			Build()
	}
	if err := site.normalize(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid config file").
			WithContext("path", path).
			Fatal().
			Build()
	}
	return &site, nil
}

func (s *Site) normalize() error {
	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if s.BaseURL == "" {
		return errors.New("base_url is required")
	}
	return nil
}

// decode unmarshals data into v according to the extension of path.
func decode(path string, data []byte, v any) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	case ".json", ".jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}
