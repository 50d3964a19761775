package scoring

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidationError reports an invalid field in a config file
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile reads a YAML (or JSON) config file.
// Omitted factors and fields keep their defaults; unknown fields are rejected.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse decodes a YAML document over DefaultConfig
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode score config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the version and that every weight is finite
func Validate(cfg Config) error {
	if cfg.Version != ConfigVersion {
		return ValidationError{"version", fmt.Sprintf("must be %d", ConfigVersion)}
	}
	for _, key := range FactorKeys {
		w := cfg.Factor(key).Weight
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return ValidationError{"factors." + string(key) + ".weight", "must be a finite number"}
		}
	}
	return nil
}
