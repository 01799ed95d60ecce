package market

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Issue codes attached to listing submissions.
const (
	IssueAttributeSchema    = "ATTRIBUTE_SCHEMA_VIOLATION"
	IssueMissingAttribute   = "MISSING_REQUIRED_ATTRIBUTE"
	IssueUnknownProductType = "UNKNOWN_PRODUCT_TYPE"
)

// ProductTypeDef describes one product type in the catalog: which attributes
// a listing of this type should carry, plus an optional JSON Schema for the
// attributes bag. Schema findings are advisory; they surface as WARNING
// issues and never reject the write.
type ProductTypeDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Required    []string       `json:"required,omitempty"`
	Schema      map[string]any `json:"schema,omitempty"`

	compiled    *jsonschema.Schema
	compileErr  error
	compileOnce sync.Once
}

// Clone returns a copy sharing no mutable state with the original. The
// compiled schema cache is not carried over.
func (pt *ProductTypeDef) Clone() *ProductTypeDef {
	if pt == nil {
		return nil
	}
	c := &ProductTypeDef{
		Name:        pt.Name,
		Description: pt.Description,
		Required:    append([]string(nil), pt.Required...),
		Schema:      deepCopyMap(pt.Schema),
	}
	return c
}

// CheckAttributes evaluates attrs against the product type contract and
// returns any advisory issues found.
func (pt *ProductTypeDef) CheckAttributes(attrs map[string]any) []Issue {
	var issues []Issue

	for _, name := range pt.Required {
		if _, ok := attrs[name]; !ok {
			issues = append(issues, Issue{
				Code:          IssueMissingAttribute,
				Severity:      SeverityWarning,
				Message:       fmt.Sprintf("product type '%s' expects attribute '%s'", pt.Name, name),
				AttributeName: name,
			})
		}
	}

	if pt.Schema == nil {
		return issues
	}

	// Compile the schema on first use.
	pt.compileOnce.Do(func() {
		pt.compiled, pt.compileErr = pt.compileSchema()
	})
	if pt.compileErr != nil {
		issues = append(issues, Issue{
			Code:     IssueAttributeSchema,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("schema for product type '%s' did not compile: %v", pt.Name, pt.compileErr),
		})
		return issues
	}

	if err := pt.compiled.Validate(attrs); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			issues = appendSchemaIssues(issues, ve)
		} else {
			issues = append(issues, Issue{
				Code:     IssueAttributeSchema,
				Severity: SeverityWarning,
				Message:  err.Error(),
			})
		}
	}
	return issues
}

func (pt *ProductTypeDef) compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	schemaBytes, err := json.Marshal(pt.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaBytes)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile("schema.json")
}

// appendSchemaIssues flattens a jsonschema validation error tree into issues,
// one per leaf cause.
func appendSchemaIssues(issues []Issue, err *jsonschema.ValidationError) []Issue {
	if len(err.Causes) == 0 {
		issues = append(issues, Issue{
			Code:          IssueAttributeSchema,
			Severity:      SeverityWarning,
			Message:       err.Message,
			AttributeName: attributeFromPointer(err.InstanceLocation),
		})
		return issues
	}
	for _, cause := range err.Causes {
		issues = appendSchemaIssues(issues, cause)
	}
	return issues
}

// attributeFromPointer converts a JSON Pointer instance location into dotted
// attribute notation.
func attributeFromPointer(ptr string) string {
	if ptr == "" || ptr == "/" {
		return ""
	}
	ptr = strings.TrimPrefix(ptr, "/")
	return strings.ReplaceAll(ptr, "/", ".")
}
