// internal/models/ewaybill.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NumericString holds a digits-only identifier that may arrive as a JSON
// number or a JSON string.
type NumericString string

func (n *NumericString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericString(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected number or string: %w", err)
	}
	*n = NumericString(num.String())
	return nil
}

func (n NumericString) String() string { return string(n) }

// Int64 parses the value as a base-10 integer.
func (n NumericString) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// EwayBillDocument is a document as returned by the fetch/search side.
type EwayBillDocument struct {
	EwayBillNo        NumericString `json:"ewayBillNo"`
	Vehicle           string        `json:"vehicle"`
	Validity          string        `json:"validity"`
	HoursToExpiry     float64       `json:"hoursToExpiry"`
	FromPlace         string        `json:"fromPlace,omitempty"`
	FromState         int           `json:"fromState,omitempty"`
	RemainingDistance int           `json:"remainingDistance,omitempty"`
}

// ReasonCode is the extension reason accepted by the compliance API.
type ReasonCode int

const (
	ReasonNaturalCalamity ReasonCode = 1
	ReasonLawAndOrder     ReasonCode = 2
	ReasonAccident        ReasonCode = 3
	ReasonOther           ReasonCode = 4
)

var reasonLabels = map[ReasonCode]string{
	ReasonNaturalCalamity: "Natural Calamity",
	ReasonLawAndOrder:     "Law and Order",
	ReasonAccident:        "Accident",
	ReasonOther:           "Other",
}

func (r ReasonCode) Valid() bool {
	_, ok := reasonLabels[r]
	return ok
}

func (r ReasonCode) String() string {
	if label, ok := reasonLabels[r]; ok {
		return label
	}
	return fmt.Sprintf("ReasonCode(%d)", int(r))
}

// UnmarshalJSON accepts 3 and "3"; dashboard forms post select values as strings.
func (r *ReasonCode) UnmarshalJSON(data []byte) error {
	var raw NumericString
	if err := raw.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("reasonCode: %w", err)
	}
	if raw == "" {
		*r = 0
		return nil
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("reasonCode: %q is not a number", string(raw))
	}
	*r = ReasonCode(v)
	return nil
}

// ExtensionRequest is the payload shared by every document of one batch.
type ExtensionRequest struct {
	FromPlace   string        `json:"fromPlace"`
	FromPincode NumericString `json:"fromPincode"`
	ReasonCode  ReasonCode    `json:"reasonCode"`
	// nil means the field was not supplied; 0 km is a legal value.
	RemainingDistance *int   `json:"remainingDistance"`
	Remarks           string `json:"remarks,omitempty"`
}

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// Validate reports every missing or malformed field at once.
func (r *ExtensionRequest) Validate() error {
	var errs []error
	if strings.TrimSpace(r.FromPlace) == "" {
		errs = append(errs, errors.New("fromPlace is required"))
	}
	switch {
	case r.FromPincode == "":
		errs = append(errs, errors.New("fromPincode is required"))
	case !pincodePattern.MatchString(string(r.FromPincode)):
		errs = append(errs, fmt.Errorf("fromPincode %q must be a 6-digit postal code", string(r.FromPincode)))
	}
	switch {
	case r.ReasonCode == 0:
		errs = append(errs, errors.New("reasonCode is required"))
	case !r.ReasonCode.Valid():
		errs = append(errs, fmt.Errorf("reasonCode %d must be between 1 and 4", int(r.ReasonCode)))
	}
	switch {
	case r.RemainingDistance == nil:
		errs = append(errs, errors.New("remainingDistance is required"))
	case *r.RemainingDistance < 0:
		errs = append(errs, errors.New("remainingDistance must not be negative"))
	}
	return errors.Join(errs...)
}

// ExtensionOutcome is the result for one document of a batch.
type ExtensionOutcome struct {
	EwbNo   string `json:"ewbNo"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchResult is the ordered set of outcomes of one bulk run.
type BatchResult struct {
	BatchID     string             `json:"batchId"`
	Success     bool               `json:"success"`
	Total       int                `json:"total"`
	Succeeded   int                `json:"succeeded"`
	Failed      int                `json:"failed"`
	Outcomes    []ExtensionOutcome `json:"outcomes"`
	StartedAt   time.Time          `json:"startedAt"`
	CompletedAt time.Time          `json:"completedAt"`
}

// NewBatchResult derives the counters and the overall flag from outcomes.
func NewBatchResult(batchID string, outcomes []ExtensionOutcome, startedAt, completedAt time.Time) BatchResult {
	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}
	return BatchResult{
		BatchID:     batchID,
		Success:     succeeded > 0,
		Total:       len(outcomes),
		Succeeded:   succeeded,
		Failed:      len(outcomes) - succeeded,
		Outcomes:    outcomes,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	}
}

// ExpiryWindow selects documents by remaining validity.
type ExpiryWindow string

const (
	ExpiryAll     ExpiryWindow = "all"
	ExpirySoon    ExpiryWindow = "expiring_soon"
	ExpiryToday   ExpiryWindow = "expiring_today"
	Expiry48Hours ExpiryWindow = "expiring_48hrs"
)

var expiryWindowHours = map[ExpiryWindow]float64{
	ExpirySoon:    12,
	ExpiryToday:   24,
	Expiry48Hours: 48,
}

// ParseExpiryWindow maps "" to ExpiryAll.
func ParseExpiryWindow(s string) (ExpiryWindow, error) {
	w := ExpiryWindow(strings.TrimSpace(s))
	if w == "" || w == ExpiryAll {
		return ExpiryAll, nil
	}
	if _, ok := expiryWindowHours[w]; !ok {
		return "", fmt.Errorf("unknown expiry window %q", s)
	}
	return w, nil
}

// MaxHours returns the inclusive upper bound; ok is false for ExpiryAll.
func (w ExpiryWindow) MaxHours() (hours float64, ok bool) {
	hours, ok = expiryWindowHours[w]
	return hours, ok
}

// Matches is the in-memory expiry predicate.
func (w ExpiryWindow) Matches(hoursToExpiry float64) bool {
	limit, ok := w.MaxHours()
	if !ok {
		return true
	}
	return hoursToExpiry <= limit
}

// FilterByExpiry keeps input order.
func FilterByExpiry(docs []EwayBillDocument, w ExpiryWindow) []EwayBillDocument {
	out := make([]EwayBillDocument, 0, len(docs))
	for _, d := range docs {
		if w.Matches(d.HoursToExpiry) {
			out = append(out, d)
		}
	}
	return out
}

// ExpiryBadge is the urgency shown next to a document.
type ExpiryBadge string

const (
	BadgeCritical ExpiryBadge = "critical"
	BadgeWarning  ExpiryBadge = "warning"
	BadgeNormal   ExpiryBadge = "normal"
)

func BadgeFor(hoursToExpiry float64) ExpiryBadge {
	switch {
	case hoursToExpiry <= 6:
		return BadgeCritical
	case hoursToExpiry <= 24:
		return BadgeWarning
	default:
		return BadgeNormal
	}
}
