package runner

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	v1 "github.com/pkgtool/pkgtool/apis/v1"
)

var (
	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
)

// ParseBundleJob parses a YAML or JSON job file and validates it against the
// constraints declared on v1.BundleJob.
func ParseBundleJob(data []byte) (v1.BundleJob, error) {
	var job v1.BundleJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return v1.BundleJob{}, fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	if err := defaultValidator.Struct(job); err != nil {
		return v1.BundleJob{}, fmt.Errorf("failed to validate job: %w", err)
	}

	for _, source := range job.Spec.Sources {
		if _, err := ResolveSourceSpec(source); err != nil {
			return v1.BundleJob{}, fmt.Errorf("failed to validate job: %w", err)
		}
	}

	return job, nil
}
