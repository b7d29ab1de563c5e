package medialibrary

// Option is a function that configures Options
type Option func(*Options)

// Options holds the configuration for media operations
type Options struct {
	DefaultDisk          string
	AutoGenerateMetadata bool
	CustomProperties     map[string]interface{}
	PathGeneratorPrefix  string
	Name                 string
	LogLevel             LogLevel
	Logger               Logger
	UploadBaseURL        string
	Quality              int
}

// WithDefaultDisk sets the default disk for media storage
func WithDefaultDisk(disk string) Option {
	return func(o *Options) {
		o.DefaultDisk = disk
	}
}

// WithDisk is an alias for WithDefaultDisk
func WithDisk(disk string) Option {
	return WithDefaultDisk(disk)
}

// WithAutoGenerateMetadata enables or disables generating attachment
// metadata and registered sizes when media is added
func WithAutoGenerateMetadata(enable bool) Option {
	return func(o *Options) {
		o.AutoGenerateMetadata = enable
	}
}

// WithCustomProperties adds custom properties to the media
func WithCustomProperties(properties map[string]interface{}) Option {
	return func(o *Options) {
		if o.CustomProperties == nil {
			o.CustomProperties = make(map[string]interface{})
		}
		for k, v := range properties {
			o.CustomProperties[k] = v
		}
	}
}

// WithPathGeneratorPrefix sets the path prefix for the path generator
func WithPathGeneratorPrefix(prefix string) Option {
	return func(o *Options) {
		o.PathGeneratorPrefix = prefix
	}
}

// WithName sets the name for the media
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithLogLevel sets the log level for the media library
func WithLogLevel(level LogLevel) Option {
	return func(o *Options) {
		o.LogLevel = level
	}
}

// WithLogger replaces the default zap logger
func WithLogger(logger Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithUploadBaseURL overrides the base URL uploads are served from. By
// default it is the URL of the default disk's root.
func WithUploadBaseURL(baseURL string) Option {
	return func(o *Options) {
		o.UploadBaseURL = baseURL
	}
}

// WithQuality sets the JPEG quality of generated sizes
func WithQuality(quality int) Option {
	return func(o *Options) {
		o.Quality = quality
	}
}
