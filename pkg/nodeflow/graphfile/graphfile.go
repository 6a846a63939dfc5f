// Package graphfile reads flow graphs (nodes and edges) from JSON or YAML
// documents and validates them before they reach the planner.
//
// A document looks like:
//
//	name: greet
//	nodes:
//	  - id: in
//	    type: text-input
//	    config: {text: Hello}
//	  - id: out
//	    type: text-output
//	edges:
//	  - {id: e1, source: in, target: out}
package graphfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownNode is returned by Validate when an edge names a node that is
// not in the document.
var ErrUnknownNode = errors.New("edge references unknown node")

var validate = validator.New()

// Document is a serialized flow graph.
type Document struct {
	Name  string          `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []nodeflow.Node `json:"nodes" yaml:"nodes" validate:"required,min=1,unique=ID,dive"`
	Edges []nodeflow.Edge `json:"edges" yaml:"edges" validate:"dive"`
}

// Load reads and validates the document at path. The format is taken from
// the extension: .json, .yaml or .yml.
func Load(path string) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer f.Close()
	return Read(f, format)
}

// FormatOf maps a file extension to a Format.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported graph file extension: %q", ext)
	}
}

// Read decodes and validates a document.
func Read(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes and validates a document. JSON numbers are kept as
// json.Number.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse json graph: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml graph: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported graph format: %q", format)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks required fields, node id uniqueness and edge endpoints.
// Cycles are not rejected here; the engine reports them as a deadlock.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid graph: %w", err)
	}

	ids := make(map[string]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		ids[n.ID] = struct{}{}
	}
	for _, e := range d.Edges {
		for _, end := range []string{e.Source, e.Target} {
			if _, ok := ids[end]; !ok {
				return fmt.Errorf("invalid graph: edge %q: %w: %s", e.ID, ErrUnknownNode, end)
			}
		}
	}
	return nil
}

// Plan builds an execution plan from the document.
func (d *Document) Plan(opts ...nodeflow.PlanOption) *nodeflow.ExecutionPlan {
	return nodeflow.BuildExecutionPlan(d.Nodes, d.Edges, opts...)
}

// Encode writes the document in the given format.
func (d *Document) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported graph format: %q", format)
	}
}
