package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/backend-pos/internal/tax"
)

func decodeYAMLFile(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func loadConfiguration(path string) (tax.Configuration, error) {
	var cfg tax.Configuration
	if path == "" {
		return cfg, errors.New("--config is required")
	}
	err := decodeYAMLFile(path, &cfg)
	return cfg, err
}

func loadOverride(path string) (tax.Override, error) {
	var o tax.Override
	if path == "" {
		return o, nil
	}
	err := decodeYAMLFile(path, &o)
	return o, err
}

func loadPolicies(path string) (tax.Policies, error) {
	policies := tax.DefaultPolicies()
	if path == "" {
		return policies, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	extra, err := tax.LoadPolicies(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return policies.Merge(extra), nil
}
