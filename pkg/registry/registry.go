// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ewaybill-workers/internal/common/validation"
)

// LoadRegistry reads an activity registry file.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// New returns an empty registry stamped with the current time.
func New() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Activities:  []Activity{},
	}
}

// Save writes the registry as indented JSON, creating the directory if needed.
func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func (r *ActivityRegistry) FindByID(id string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i]
		}
	}
	return nil
}

func (r *ActivityRegistry) FindByTaskType(taskType string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i]
		}
	}
	return nil
}

// Add appends an activity. IDs must be unique.
func (r *ActivityRegistry) Add(activity Activity) error {
	if r.FindByID(activity.ID) != nil {
		return fmt.Errorf("activity with ID %s already exists", activity.ID)
	}
	r.Activities = append(r.Activities, activity)
	r.touch()
	return nil
}

// Update sets a single named field on an existing activity.
func (r *ActivityRegistry) Update(id, field, value string) error {
	activity := r.FindByID(id)
	if activity == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		activity.ImplementationStatus = value
	case "version":
		activity.Version = value
	case "displayName":
		activity.DisplayName = value
	case "description":
		activity.Description = value
	case "category":
		activity.Category = value
	case "taskType":
		activity.TaskType = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		activity.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	r.touch()
	return nil
}

// Validate checks required fields and uniqueness of IDs and task types.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]string)
	for _, activity := range r.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if activity.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", activity.ID)
		}
		if err := validation.ValidateActivityNaming(activity.TaskType); err != nil {
			return fmt.Errorf("activity %s: %w", activity.ID, err)
		}
		if activity.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", activity.ID)
		}
		if other, ok := taskTypes[activity.TaskType]; ok {
			return fmt.Errorf("activities %s and %s share task type %s", other, activity.ID, activity.TaskType)
		}
		taskTypes[activity.TaskType] = activity.ID

		if activity.Timeout != "" {
			if _, err := time.ParseDuration(activity.Timeout); err != nil {
				return fmt.Errorf("activity %s has invalid timeout %q", activity.ID, activity.Timeout)
			}
		}
	}
	return nil
}

// MissingTaskTypes returns the task types that have no activity entry,
// in the order given.
func (r *ActivityRegistry) MissingTaskTypes(taskTypes []string) []string {
	var missing []string
	for _, taskType := range taskTypes {
		if r.FindByTaskType(taskType) == nil {
			missing = append(missing, taskType)
		}
	}
	return missing
}

func (r *ActivityRegistry) touch() {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}
