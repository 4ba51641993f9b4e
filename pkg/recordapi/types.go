// Package recordapi is the wire contract of the record-storage service and an HTTP client for it.
package recordapi

import (
	"encoding/json"
	"fmt"
)

// Field names as they appear on the wire. Each task attribute has a plain
// spelling and a suffixed storage spelling; Name mirrors the title.
const (
	FieldID           = "Id"
	FieldName         = "Name"
	FieldTitle        = "title"
	FieldTitleC       = "title_c"
	FieldDescription  = "description"
	FieldDescriptionC = "description_c"
	FieldCompleted    = "completed"
	FieldCompletedC   = "completed_c"
	FieldPriority     = "priority"
	FieldPriorityC    = "priority_c"
	FieldDueDate      = "dueDate"
	FieldDueDateC     = "due_date_c"
	FieldCompletedAt  = "completedAt"
	FieldCompletedAtC = "completed_at_c"
	FieldCreatedOn    = "CreatedOn"
)

// Operators
const (
	OperatorExactMatch = "ExactMatch"
	OperatorContains   = "Contains"
	GroupOr            = "OR"
	GroupAnd           = "AND"
	SortAsc            = "ASC"
	SortDesc           = "DESC"
)

// FetchParams selects, filters, orders and pages records.
type FetchParams struct {
	Fields      []FieldSpec  `json:"fields,omitempty"`
	Where       []Condition  `json:"where,omitempty"`
	WhereGroups []WhereGroup `json:"whereGroups,omitempty"`
	OrderBy     []OrderBy    `json:"orderBy,omitempty"`
	PagingInfo  *PagingInfo  `json:"pagingInfo,omitempty"`
}

type FieldSpec struct {
	Field FieldRef `json:"field"`
}

type FieldRef struct {
	Name string `json:"Name"`
}

// Fields builds a field list from names.
func Fields(names ...string) []FieldSpec {
	specs := make([]FieldSpec, len(names))
	for i, n := range names {
		specs[i] = FieldSpec{Field: FieldRef{Name: n}}
	}
	return specs
}

// Condition is an AND-ed filter on one field.
type Condition struct {
	FieldName string `json:"FieldName"`
	Operator  string `json:"Operator"`
	Values    []any  `json:"Values"`
}

// WhereGroup combines sub-groups of conditions.
type WhereGroup struct {
	Operator  string     `json:"operator"`
	SubGroups []SubGroup `json:"subGroups"`
}

type SubGroup struct {
	Conditions []GroupCondition `json:"conditions"`
	Operator   string           `json:"operator"`
}

type GroupCondition struct {
	FieldName   string `json:"fieldName"`
	Operator    string `json:"operator"`
	SubOperator string `json:"subOperator"`
	Values      []any  `json:"values"`
}

type OrderBy struct {
	FieldName string `json:"fieldName"`
	SortType  string `json:"sorttype"`
}

type PagingInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// WriteRequest carries records for create and update.
type WriteRequest struct {
	Records []json.RawMessage `json:"records"`
}

// DeleteRequest carries the ids to delete.
type DeleteRequest struct {
	RecordIDs []int64 `json:"RecordIds"`
}

// Response is the envelope of every call. Reads fill Data, writes fill Results.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Results []RecordResult  `json:"results,omitempty"`
}

// RecordResult is the outcome of one record in a batch write.
type RecordResult struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Errors     []FieldError    `json:"errors,omitempty"`
	Message    string          `json:"message,omitempty"`
	StatusCode int             `json:"statusCode,omitempty"`
}

type FieldError struct {
	FieldLabel string `json:"fieldLabel"`
	Message    string `json:"message"`
}

func (e FieldError) String() string {
	label := e.FieldLabel
	if label == "" {
		label = "Field"
	}
	return fmt.Sprintf("%s: %s", label, e.Message)
}

// APIError is returned when the service answers success=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("record api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("record api: status %d: %s", e.StatusCode, e.Message)
}
