// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked for in the standard locations.
const FileName = "cacheguard.yaml"

type Type struct {
	Source    string
	Namespace string
	Data      map[string]interface{}
}

var Config Type

// Load reads the config file. The optional namespace (usually the subcommand
// name) is tried before the bare key by the getters.
func Load(namespace ...string) (Type, error) {
	path, err := getConfigPath()
	if err != nil {
		return Type{}, err
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Type{}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return Type{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	Config = Type{
		Source: path,
		Data:   data,
	}
	if len(namespace) > 0 {
		Config.Namespace = namespace[0]
	}

	return Config, nil
}

// get traverses the map using a dotted key path
func (cfg *Type) get(kspec string) (any, error) {
	candidateKeys := []string{kspec}
	if cfg.Namespace != "" {
		candidateKeys = []string{cfg.Namespace + "." + kspec, kspec}
	}

	for _, key := range candidateKeys {
		keys := strings.Split(key, ".")
		var current interface{} = cfg.Data

		success := true
		for _, key := range keys {
			m, ok := current.(map[string]interface{})
			if !ok {
				success = false
				break
			}
			current, ok = m[key]
			if !ok {
				success = false
				break
			}
		}

		if success {
			return current, nil
		}
	}

	return nil, fmt.Errorf("no valid path found among: %v", candidateKeys)
}

func lazyLoad() {
	if len(Config.Data) == 0 {
		ns := Config.Namespace
		if _, err := Load(); err == nil {
			Config.Namespace = ns
		}
	}
}

func GetString(key string, defaultValue ...string) (string, error) {
	lazyLoad()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", err
	}

	s, ok := val.(string)
	if !ok {
		return "", errors.New("value is not a string")
	}

	return s, nil
}

func GetInt(key string, defaultValue ...int) (int, error) {
	lazyLoad()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	// YAML numbers may be unmarshaled as int/float64 depending on content.
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.New("value is not an int")
	}
}

// GetStringSlice accepts either a YAML list of scalars or a single string,
// which becomes a one-element slice.
func GetStringSlice(key string, defaultValue ...[]string) ([]string, error) {
	lazyLoad()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return nil, err
	}

	switch v := val.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch item.(type) {
			case map[string]interface{}, []interface{}:
				return nil, errors.New("value is not a list of scalars")
			}
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	default:
		return nil, errors.New("value is not a list")
	}
}

// GetDuration parses a Go duration string ("4s", "1m").
func GetDuration(key string, defaultValue ...time.Duration) (time.Duration, error) {
	s, err := GetString(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}
	return time.ParseDuration(s)
}

func getConfigPath() (string, error) {
	if p, ok := os.LookupEnv("CACHEGUARD_CFG"); ok && p != "" {
		fileInfo, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("config file not found: %s", p)
		}
		if fileInfo.IsDir() {
			return "", fmt.Errorf("CACHEGUARD_CFG points to a directory: %s", p)
		}
		return p, nil
	}

	var candidates []string = []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("APPDATA"),
		os.Getenv("HOME"),
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		file := filepath.Join(c, FileName)
		if fileInfo, err := os.Stat(file); err == nil {
			if !fileInfo.IsDir() {
				log.Debugf("using config file: %s", file)
				return file, nil
			}
		}
	}
	return "", fmt.Errorf("no config file found in standard locations")
}
