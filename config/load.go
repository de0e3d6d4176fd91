package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts the name of every environment variable read.
const EnvPrefix = "FDTPLATFORM_"

// LoadFile overlays the YAML file at path onto opts. Unknown keys are
// rejected.
func LoadFile(afs afero.Fs, path string, opts *Options) error {
	data, err := afero.ReadFile(afs, path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err = dec.Decode(opts)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBadOption, path, err)
	}

	return nil
}

// LoadEnv overlays the environment onto opts. Variables set in the process
// environment win over those read from the dotenv files, and missing dotenv
// files are skipped.
func LoadEnv(afs afero.Fs, opts *Options, dotenvFiles ...string) error {
	env, err := readDotenv(afs, dotenvFiles)
	if err != nil {
		return err
	}

	for _, key := range envKeys {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			env[EnvPrefix+key] = v
		}
	}

	return applyEnv(env, opts)
}

func readDotenv(afs afero.Fs, files []string) (map[string]string, error) {
	env := make(map[string]string)

	for _, name := range files {
		f, err := afs.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, err
		}

		vars, err := godotenv.Parse(f)
		f.Close()

		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBadOption, name, err)
		}

		for k, v := range vars {
			if _, set := env[k]; !set {
				env[k] = v
			}
		}
	}

	return env, nil
}

var envKeys = []string{
	"HW_DTB",
	"MEMORY",
	"CPUS",
	"RECORD",
	"MONITOR",
	"MONITOR_PORT",
	"OPEN_BROWSER",
	"VERBOSE",
}

func applyEnv(env map[string]string, opts *Options) error {
	for _, key := range envKeys {
		v, ok := env[EnvPrefix+key]
		if !ok {
			continue
		}

		err := applyEnvValue(key, v, opts)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %w",
				ErrBadOption, EnvPrefix, key, v, err)
		}
	}

	return nil
}

func applyEnvValue(key, v string, opts *Options) (err error) {
	switch key {
	case "HW_DTB":
		opts.HWDTB = v
	case "MEMORY":
		err = opts.MemorySize.Set(v)
	case "CPUS":
		opts.CPUs, err = strconv.Atoi(v)
	case "RECORD":
		opts.RecordPath = v
	case "MONITOR":
		opts.Monitor, err = strconv.ParseBool(v)
	case "MONITOR_PORT":
		opts.MonitorPort, err = strconv.Atoi(v)
	case "OPEN_BROWSER":
		opts.OpenBrowser, err = strconv.ParseBool(v)
	case "VERBOSE":
		opts.Verbose, err = strconv.Atoi(v)
	}

	return err
}
