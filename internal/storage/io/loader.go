package io

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/maestrohq/maestroctl/internal/model"
)

// ProfileYAMLRepository loads the CLI profile from YAML files.
type ProfileYAMLRepository struct {
	fs       fs.FS
	validate *validator.Validate
}

// NewProfileYAMLRepository creates a new YAML profile repository.
func NewProfileYAMLRepository(filesystem fs.FS) *ProfileYAMLRepository {
	return &ProfileYAMLRepository{
		fs:       filesystem,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// GetProfile loads a profile from a YAML file and returns a validated domain model.
// A missing file returns ErrNotFound.
func (r *ProfileYAMLRepository) GetProfile(ctx context.Context, path string) (model.Profile, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Profile{}, fmt.Errorf("profile %s: %w", path, model.ErrNotFound)
		}
		return model.Profile{}, fmt.Errorf("reading profile file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Profile{}, ctx.Err()
	}

	var p ProfileConfig
	if err := yaml.Unmarshal(data, &p); err != nil {
		return model.Profile{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := r.validate.Struct(p); err != nil {
		return model.Profile{}, fmt.Errorf("invalid profile: %s: %w", validationMessage(err), model.ErrNotValid)
	}

	return p.toModel(), nil
}

// ProfileConfig represents the YAML structure of the CLI profile.
type ProfileConfig struct {
	APIURL       string        `yaml:"api_url" validate:"omitempty,http_url"`
	UserID       string        `yaml:"user_id" validate:"omitempty,max=128"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"omitempty,gte=100ms"`
	PollTimeout  time.Duration `yaml:"poll_timeout" validate:"omitempty,gte=1s,gtfield=PollInterval"`
	HTTPTimeout  time.Duration `yaml:"http_timeout" validate:"omitempty,gte=100ms"`
}

func (c ProfileConfig) toModel() model.Profile {
	return model.Profile{
		APIURL:       strings.TrimRight(c.APIURL, "/"),
		UserID:       c.UserID,
		PollInterval: c.PollInterval,
		PollTimeout:  c.PollTimeout,
		HTTPTimeout:  c.HTTPTimeout,
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	fields := []string{}
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %q", yamlName(fe.StructField()), fe.Tag()))
	}

	return strings.Join(fields, ", ")
}

func yamlName(field string) string {
	switch field {
	case "APIURL":
		return "api_url"
	case "UserID":
		return "user_id"
	case "PollInterval":
		return "poll_interval"
	case "PollTimeout":
		return "poll_timeout"
	case "HTTPTimeout":
		return "http_timeout"
	}
	return field
}
