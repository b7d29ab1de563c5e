// Package config loads the service configuration from an optional YAML file
// and DYNIMG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. DYNIMG_DATABASE_DRIVER.
const EnvPrefix = "DYNIMG"

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Disks    DisksConfig    `mapstructure:"disks"`
	Library  LibraryConfig  `mapstructure:"library"`
	Image    ImageConfig    `mapstructure:"image"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	// Driver is one of memory, postgres or mysql.
	Driver string `mapstructure:"driver" default:"memory" validate:"oneof=memory postgres mysql"`
	DSN    string `mapstructure:"dsn" validate:"required_unless=Driver memory"`
}

type DisksConfig struct {
	Default string          `mapstructure:"default" default:"local" validate:"oneof=local s3"`
	Local   LocalDiskConfig `mapstructure:"local"`
	S3      S3DiskConfig    `mapstructure:"s3"`
}

type LocalDiskConfig struct {
	BasePath string `mapstructure:"base_path" default:"uploads" validate:"required"`
	BaseURL  string `mapstructure:"base_url" default:"http://localhost:8080/uploads" validate:"omitempty,url"`
}

type S3DiskConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket" validate:"required_if=Enabled true"`
	Region          string `mapstructure:"region" default:"us-east-1"`
	BaseURL         string `mapstructure:"base_url" validate:"omitempty,url"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	PublicURLs      bool   `mapstructure:"public_urls"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type LibraryConfig struct {
	PathPrefix    string       `mapstructure:"path_prefix"`
	UploadBaseURL string       `mapstructure:"upload_base_url" validate:"omitempty,url"`
	Quality       int          `mapstructure:"quality" default:"90" validate:"min=1,max=100"`
	Sizes         []SizeConfig `mapstructure:"sizes" validate:"dive"`
}

// SizeConfig registers a named size generated for every upload. With no
// sizes configured the thumbnail, medium and large defaults apply.
type SizeConfig struct {
	Name   string `mapstructure:"name" validate:"required"`
	Width  int    `mapstructure:"width" validate:"min=0"`
	Height int    `mapstructure:"height" validate:"min=0"`
	Crop   bool   `mapstructure:"crop"`
}

type ImageConfig struct {
	// Debug shows resolution errors to logged in editors.
	Debug bool `mapstructure:"debug"`
	// Fit resizes into the requested box instead of cropping to it.
	Fit bool `mapstructure:"fit"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" default:"info" validate:"oneof=none off error warn warning info debug"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" default:"100" validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups" default:"3" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" default:"28" validate:"min=0"`
	Compress   bool   `mapstructure:"compress"`
}

// Load reads path, if given, and applies environment overrides, defaults
// and validation.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees env vars for keys viper knows about.
	for _, key := range keys(reflect.TypeOf(Config{}), "") {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set defaults: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set defaults after unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Disks.Default == "s3" && !c.Disks.S3.Enabled {
		return errors.New("invalid config: default disk s3 is not enabled")
	}

	return nil
}

// keys lists the dotted mapstructure keys of every scalar field of t.
func keys(t reflect.Type, prefix string) []string {
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("mapstructure")
		if name == "" || name == "-" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		switch f.Type.Kind() {
		case reflect.Struct:
			out = append(out, keys(f.Type, name)...)
		case reflect.Slice, reflect.Map:
		default:
			out = append(out, name)
		}
	}
	return out
}
