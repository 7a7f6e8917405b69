package model

import (
	"bufio"
	"io"
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

const (
	constraintsSection = "such that"
	binariesSection    = "binary"
	documentEnd        = "end"
)

// Document is a pure 0/1 ILP in the LP-like dialect read and written by the solver:
// one objective line, constraint lines and declared binary variables
type Document struct {
	objective   string
	constraints []string
	binaries    []string
	declared    mapset.Set[string] // Mirrors binaries for membership checks
}

func NewDocument(objective string) *Document {
	return &Document{
		objective: objective,
		declared:  mapset.NewThreadUnsafeSet[string](),
	}
}

// Load parses a document line by line. Section keywords switch the section lines are appended
// to; unsupported sections (generals, semi-continuous, SOS...) are skipped up to the next header.
func Load(reader io.Reader) (*Document, error) {
	document := NewDocument("")
	inConstraints, inBinaries := false, false

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024) // Exclusion constraints can get long
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch classify(line) {
		case constraintsHeader:
			inConstraints, inBinaries = true, false
		case binariesHeader:
			inConstraints, inBinaries = false, true
		case unsupportedHeader:
			inConstraints, inBinaries = false, false
		case objectiveLine:
			document.SetObjective(line)
		case endLine:
			return document, nil
		default:
			if inConstraints {
				document.AppendConstraint(line)
			} else if inBinaries {
				document.DeclareBinary(line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "cannot read model")
	}
	return document, nil
}

func LoadFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open model %q", path)
	}
	defer file.Close()

	document, err := Load(file)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load model %q", path)
	}
	return document, nil
}

func (document *Document) Objective() string { return document.objective }

func (document *Document) SetObjective(objective string) { document.objective = objective }

// Constraints returns a copy of the constraint lines in insertion order
func (document *Document) Constraints() []string {
	return append([]string(nil), document.constraints...)
}

// Binaries returns a copy of the declared binaries in declaration order
func (document *Document) Binaries() []string {
	return append([]string(nil), document.binaries...)
}

// AppendConstraint adds a line as is, its syntax is left to the solver
func (document *Document) AppendConstraint(constraint string) {
	document.constraints = append(document.constraints, constraint)
}

// DeclareBinary declares a binary variable, repeated names are ignored
func (document *Document) DeclareBinary(name string) {
	if document.declared.Add(name) {
		document.binaries = append(document.binaries, name)
	}
}

func (document *Document) IsBinary(name string) bool {
	return document.declared.Contains(name)
}

func (document *Document) Clone() *Document {
	clone := NewDocument(document.objective)
	clone.constraints = document.Constraints()
	for _, binary := range document.binaries {
		clone.DeclareBinary(binary)
	}
	return clone
}

// Serialize writes the objective, the constraints section, the binaries section and the end marker
func (document *Document) Serialize() string {
	var builder strings.Builder
	builder.WriteString(document.objective + "\n")
	builder.WriteString(constraintsSection + "\n")
	for _, constraint := range document.constraints {
		builder.WriteString(constraint + "\n")
	}
	builder.WriteString(binariesSection + "\n")
	for _, binary := range document.binaries {
		builder.WriteString(binary + "\n")
	}
	builder.WriteString(documentEnd + "\n")
	return builder.String()
}

func (document *Document) Save(path string) error {
	if err := os.WriteFile(path, []byte(document.Serialize()), 0666); err != nil {
		return errors.Wrapf(err, "cannot save model to %q", path)
	}
	return nil
}
