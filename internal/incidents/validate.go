package incidents

import (
	"fmt"
	"strings"

	"github.com/miradorstack/mirador-kb/internal/models"
	"github.com/miradorstack/mirador-kb/internal/utils"
)

func validateDraft(op string, draft models.IncidentDraft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return utils.InvalidInput(op, "title is required")
	}
	if !draft.Type.Valid() {
		return utils.InvalidInput(op, fmt.Sprintf("unknown incident type %q", draft.Type))
	}
	if !draft.Severity.Valid() {
		return utils.InvalidInput(op, fmt.Sprintf("unknown severity %q", draft.Severity))
	}
	return validateSources(op, draft.Sources)
}

func validatePatch(op string, patch models.IncidentPatch) error {
	if patch.Type != nil && !patch.Type.Valid() {
		return utils.InvalidInput(op, fmt.Sprintf("unknown incident type %q", *patch.Type))
	}
	if patch.Severity != nil && !patch.Severity.Valid() {
		return utils.InvalidInput(op, fmt.Sprintf("unknown severity %q", *patch.Severity))
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return utils.InvalidInput(op, fmt.Sprintf("unknown status %q", *patch.Status))
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return utils.InvalidInput(op, "title must not be blank")
	}
	return validateSources(op, patch.AddSources)
}

func validateSources(op string, sources []models.IncidentSource) error {
	for _, src := range sources {
		if !src.Type.Valid() {
			return utils.InvalidInput(op, fmt.Sprintf("unknown source type %q", src.Type))
		}
	}
	return nil
}

func validateFilter(op string, filter models.SearchFilter) error {
	if filter.Limit < 0 {
		return utils.InvalidInput(op, "limit must not be negative")
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return utils.InvalidInput(op, fmt.Sprintf("unknown incident type %q", filter.Type))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return utils.InvalidInput(op, fmt.Sprintf("unknown status %q", filter.Status))
	}
	if filter.Severity != "" && !filter.Severity.Valid() {
		return utils.InvalidInput(op, fmt.Sprintf("unknown severity %q", filter.Severity))
	}
	return nil
}
