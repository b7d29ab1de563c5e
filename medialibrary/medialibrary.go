package medialibrary

import (
	"encoding/json"
	"errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/vortechron/go-dynamic-image/conversion"
	"github.com/vortechron/go-dynamic-image/storage"
)

// ErrMediaNotFound is returned when an attachment ID has no media record
var ErrMediaNotFound = errors.New("media not found")

// DefaultMediaLibrary is the MediaLibrary backed by a DiskManager, a
// Transformer and a MediaRepository
type DefaultMediaLibrary struct {
	diskManager    *storage.DiskManager
	transformer    conversion.Transformer
	repository     MediaRepository
	defaultOptions *Options
	pathGenerator  PathGenerator
	logger         Logger
}

// NewDefaultMediaLibrary creates a new media library
func NewDefaultMediaLibrary(
	diskManager *storage.DiskManager,
	transformer conversion.Transformer,
	repository MediaRepository,
	options ...Option,
) *DefaultMediaLibrary {
	opts := &Options{
		DefaultDisk:          "local",
		AutoGenerateMetadata: true,
		CustomProperties:     make(map[string]interface{}),
		LogLevel:             LogLevelInfo,
		Quality:              90,
	}

	for _, opt := range options {
		opt(opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = NewDefaultLogger(opts.LogLevel)
	}

	return &DefaultMediaLibrary{
		diskManager:    diskManager,
		transformer:    transformer,
		repository:     repository,
		defaultOptions: opts,
		pathGenerator: &DefaultPathGenerator{
			prefix: opts.PathGeneratorPrefix,
		},
		logger: logger,
	}
}

// GetMediaRepository returns the media repository
func (m *DefaultMediaLibrary) GetMediaRepository() MediaRepository {
	return m.repository
}

// SetLogLevel sets the log level of the library's logger
func (m *DefaultMediaLibrary) SetLogLevel(level LogLevel) {
	m.logger.SetLevel(level)
}

// GetLogger returns the library's logger
func (m *DefaultMediaLibrary) GetLogger() Logger {
	return m.logger
}

// metaJSON encodes meta values with sorted keys and without HTML escaping,
// so stored file names stay searchable as written.
var metaJSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

func marshalMeta(v any) (json.RawMessage, error) {
	b, err := metaJSON.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func unmarshalMeta(raw json.RawMessage, out any) error {
	return metaJSON.Unmarshal(raw, out)
}
