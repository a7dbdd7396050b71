package features

import (
	"fmt"

	"github.com/nerrad567/tickpilot/internal/feature"
	"github.com/nerrad567/tickpilot/internal/features/autoconfirm"
	"github.com/nerrad567/tickpilot/internal/features/jobannounce"
)

// New constructs every shipped feature.
func New(deps feature.Deps) []feature.Feature {
	return []feature.Feature{
		autoconfirm.New(deps),
		jobannounce.New(deps),
	}
}

// All constructs every shipped feature and registers it with r.
func All(r *feature.Registry, deps feature.Deps) error {
	for _, f := range New(deps) {
		if err := r.Register(f); err != nil {
			return fmt.Errorf("registering features: %w", err)
		}
	}
	return nil
}
