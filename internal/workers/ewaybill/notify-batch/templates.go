package notifybatch

import (
	"fmt"
	"strings"

	"ewaybill-workers/internal/models"
)

const (
	subjectSucceeded = "Successfully extended {{succeeded}} eWay Bills"
	subjectPartial   = "Successfully extended {{succeeded}} eWay Bills, {{failed}} failed"
	subjectAllFailed = "All eWay Bills failed to extend"

	emailBody = `Bulk extension batch {{batchId}} finished.

Documents: {{total}}
Extended:  {{succeeded}}
Failed:    {{failed}}
{{failures}}`

	smsBody = "eWay Bill batch {{batchId}}: all {{total}} extensions failed. Please check the details and try again."
)

// summarize renders the subject line shown for a finished batch.
func summarize(b models.BatchResult) string {
	data := templateData(b)
	switch {
	case b.Succeeded == 0:
		return renderTemplate(subjectAllFailed, data)
	case b.Failed > 0:
		return renderTemplate(subjectPartial, data)
	default:
		return renderTemplate(subjectSucceeded, data)
	}
}

func templateData(b models.BatchResult) map[string]interface{} {
	var failures strings.Builder
	for _, o := range b.Outcomes {
		if !o.Success {
			fmt.Fprintf(&failures, "\n- %s: %s", o.EwbNo, o.Error)
		}
	}
	return map[string]interface{}{
		"batchId":   b.BatchID,
		"total":     b.Succeeded + b.Failed,
		"succeeded": b.Succeeded,
		"failed":    b.Failed,
		"failures":  failures.String(),
	}
}

// renderTemplate replaces {{key}} placeholders; unknown placeholders render empty.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
