// Package dealer loads the immutable dealer registry. The registry is read
// once at startup, validated against a JSON schema, and passed by reference
// into every component; nothing mutates it afterwards.
package dealer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	apperrors "nsa-scheduler/internal/common/errors"
)

// Profile holds one dealer's scheduling configuration.
type Profile struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DealerUUID      string `json:"dealerUuid"`
	DepartmentUUID  string `json:"departmentUuid"`
	OpcodeWorkbook  string `json:"opcodeWorkbook"`
	IntervalMonths  int    `json:"intervalMonths"`
	DefaultOpcode   string `json:"defaultOpcode"`
}

// Registry is the immutable dealer collection keyed by dealer identifier.
type Registry struct {
	profiles map[string]Profile
}

type registryDocument struct {
	Dealers []Profile `json:"dealers"`
}

// Load reads and validates the dealer registry document.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewValidationFailedError("dealer registry", err.Error())
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(registrySchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, apperrors.NewValidationFailedError("dealer registry", err.Error())
	}
	if !result.Valid() {
		details := ""
		for _, desc := range result.Errors() {
			if details != "" {
				details += "; "
			}
			details += desc.String()
		}
		return nil, apperrors.NewValidationFailedError("dealer registry", details)
	}

	var doc registryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewValidationFailedError("dealer registry", err.Error())
	}

	profiles := make(map[string]Profile, len(doc.Dealers))
	for _, p := range doc.Dealers {
		if _, dup := profiles[p.ID]; dup {
			return nil, apperrors.NewValidationFailedError("dealer registry",
				fmt.Sprintf("duplicate dealer id %q", p.ID))
		}
		profiles[p.ID] = p
	}

	return &Registry{profiles: profiles}, nil
}

// Get returns the profile for a dealer identifier.
func (r *Registry) Get(dealerID string) (Profile, bool) {
	p, ok := r.profiles[dealerID]
	return p, ok
}

// All returns a copy of every profile.
func (r *Registry) All() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	return out
}

// Len returns the number of registered dealers.
func (r *Registry) Len() int {
	return len(r.profiles)
}
