package cost

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

var validate = validator.New()

// Validate reports an INVALID_CONFIG error if any cost is negative or NaN.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "cost configuration")
	}
	e := verrs[0]
	switch e.Tag() {
	case "gte":
		return apperr.New(apperr.ErrCodeInvalidConfig, "%s: must be >= %s, got %v", e.Namespace(), e.Param(), e.Value())
	default:
		return apperr.New(apperr.ErrCodeInvalidConfig, "%s: validation failed (%s)", e.Namespace(), e.Tag())
	}
}

// LoadFile reads a partial cost configuration from a .toml, .yaml, .yml or
// .json file. Unknown extensions are rejected with INVALID_FORMAT.
func LoadFile(path string) (Partial, error) {
	if err := apperr.ValidatePath(path); err != nil {
		return Partial{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Partial{}, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "cost config %s", path)
		}
		return Partial{}, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "read cost config %s", path)
	}
	return Parse(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// Parse decodes a partial cost configuration in the given format
// ("toml", "yaml", "yml" or "json").
func Parse(data []byte, format string) (Partial, error) {
	var p Partial
	var err error
	switch format {
	case "toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&p)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &p)
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&p)
	default:
		return Partial{}, apperr.New(apperr.ErrCodeInvalidFormat, "unsupported cost config format %q (must be toml, yaml or json)", format)
	}
	if err != nil {
		return Partial{}, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode %s cost config", format)
	}
	return p, nil
}
