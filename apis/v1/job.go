package v1

// BundleJob describes a bundle: which files to gather, how to archive them
// and where to publish the archive.
type BundleJob struct {
	// Kind must be "BundleJob".
	Kind     string        `yaml:"kind" json:"kind" validate:"required,eq=BundleJob"`
	Metadata Metadata      `yaml:"metadata" json:"metadata"`
	Spec     BundleJobSpec `yaml:"spec" json:"spec"`
}

type Metadata struct {
	// Name identifies the job and is the default archive name.
	Name string `yaml:"name" json:"name" validate:"required"`
}

type BundleJobSpec struct {
	// Sources are fetched in order; archive entries keep that order.
	Sources []Source `yaml:"sources" json:"sources" validate:"required,min=1,unique=ID,dive"`

	// Filter is an optional CEL expression deciding which fetched files are archived.
	// Variables: id, name, path, ext, size.
	Filter *string `yaml:"filter,omitempty" json:"filter,omitempty"`

	// Archive configures the archive format (default: zip named after the job).
	Archive *ArchiveSpec `yaml:"archive,omitempty" json:"archive,omitempty"`

	// Sink configures where the archive is published (default: filesystem in the working directory).
	Sink *SinkSpec `yaml:"sink,omitempty" json:"sink,omitempty"`
}

// Source produces one archive entry (exactly one of the fields should be set).
type Source struct {
	ID     string        `yaml:"id" json:"id" validate:"required"`
	File   *FileSource   `yaml:"file,omitempty" json:"file,omitempty"`
	Inline *InlineSource `yaml:"inline,omitempty" json:"inline,omitempty"`
	Exec   *ExecSource   `yaml:"exec,omitempty" json:"exec,omitempty"`
	HTTP   *HTTPSource   `yaml:"http,omitempty" json:"http,omitempty"`
}

// FileSource adds an existing local file.
type FileSource struct {
	// Path to the file, relative to the working directory unless absolute.
	Path string `yaml:"path" json:"path" validate:"required" template:""`
}

// InlineSource writes literal content to a file in the working directory of the run.
type InlineSource struct {
	// Name of the file, a single path element.
	Name    string `yaml:"name" json:"name" validate:"required" template:""`
	Content string `yaml:"content" json:"content" template:""`
}

// ExecSource runs a program inside the working directory of the run and stores its stdout.
type ExecSource struct {
	Program []string `yaml:"program" json:"program" validate:"required,min=1" template:""`
	// Output is the name of the file stdout is written to.
	Output string            `yaml:"output" json:"output" validate:"required" template:""`
	Env    map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	// Timeout is a Go duration string (default: 30s).
	Timeout *string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// HTTPSource downloads a file.
type HTTPSource struct {
	URL string `yaml:"url" json:"url" validate:"required,url" template:""`
	// Name of the downloaded file (default: last element of the URL path).
	Name    *string           `yaml:"name,omitempty" json:"name,omitempty" template:""`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	// Timeout in seconds (default: 30).
	Timeout  *int `yaml:"timeout,omitempty" json:"timeout,omitempty" validate:"omitempty,min=1"`
	Insecure bool `yaml:"insecure,omitempty" json:"insecure,omitempty"`
}

// ArchiveSpec configures the archive.
type ArchiveSpec struct {
	// Name of the archive without extension (default: job name).
	Name string `yaml:"name,omitempty" json:"name,omitempty" template:""`
	// Format is zip or tar (default: zip).
	Format string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=zip tar"`
	// Compression applies to tar archives: gzip, zstd or none (default: gzip).
	Compression string `yaml:"compression,omitempty" json:"compression,omitempty" validate:"omitempty,oneof=gzip zstd none"`
}

// SinkSpec configures the archive destination (one of the fields should be set).
type SinkSpec struct {
	Stdout     *StdoutSinkSpec     `yaml:"stdout,omitempty" json:"stdout,omitempty"`
	Filesystem *FilesystemSinkSpec `yaml:"filesystem,omitempty" json:"filesystem,omitempty"`
	S3         *S3SinkSpec         `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// StdoutSinkSpec writes the archive to standard output (no options currently).
type StdoutSinkSpec struct{}

// FilesystemSinkSpec writes the archive to a directory.
type FilesystemSinkSpec struct {
	// Path is the output directory (default: working directory).
	Path *string `yaml:"path,omitempty" json:"path,omitempty" template:""`
	// Prefix is joined to Path.
	Prefix *string `yaml:"prefix,omitempty" json:"prefix,omitempty" template:""`
}

// S3SinkSpec uploads the archive to S3-compatible storage.
type S3SinkSpec struct {
	Bucket         string         `yaml:"bucket" json:"bucket" validate:"required" template:""`
	Region         *string        `yaml:"region,omitempty" json:"region,omitempty" template:""`
	Endpoint       *string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty" template:""`
	Prefix         *string        `yaml:"prefix,omitempty" json:"prefix,omitempty" template:""`
	Credentials    *S3Credentials `yaml:"credentials,omitempty" json:"credentials,omitempty"`
	ForcePathStyle bool           `yaml:"force_path_style,omitempty" json:"force_path_style,omitempty"`
}

type S3Credentials struct {
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id" validate:"required" template:""`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key" validate:"required" template:""`
}
