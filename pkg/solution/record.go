package solution

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var ErrMalformed = errors.New("malformed solution")

// Values this close to an integer are read as that integer, as solvers report binaries as 0.9999999
const integralityTolerance = 1e-6

const objectiveHeader = "# Objective value = "

type ParseError struct {
	File   string
	Line   int
	Text   string
	Reason string
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("%v:%d: %v: %q", err.File, err.Line, err.Reason, err.Text)
}

func (err *ParseError) Unwrap() error { return ErrMalformed }

// Record is the outcome of one solver run. An infeasible record carries no objective nor values.
type Record struct {
	Feasible  bool
	Objective int64
	names     []string // In the order the solver reported them
	values    map[string]int64
	groups    map[int64][]string
}

func Infeasible() *Record {
	return &Record{}
}

// NewRecord starts a feasible record; values are added with Assign while building it
func NewRecord(objective int64) *Record {
	return &Record{
		Feasible:  true,
		Objective: objective,
		values:    make(map[string]int64),
		groups:    make(map[int64][]string),
	}
}

func (record *Record) Assign(name string, value int64) *Record {
	if previous, ok := record.values[name]; ok {
		record.groups[previous] = lo.Without(record.groups[previous], name)
	} else {
		record.names = append(record.names, name)
	}
	record.values[name] = value
	record.groups[value] = append(record.groups[value], name)
	return record
}

// Ones returns the variables assigned 1, in reporting order
func (record *Record) Ones() []string {
	return record.WithValue(1)
}

func (record *Record) WithValue(value int64) []string {
	if !record.Feasible {
		return nil
	}
	return append([]string(nil), record.groups[value]...)
}

func (record *Record) Value(name string) (int64, bool) {
	value, ok := record.values[name]
	return value, ok
}

func (record *Record) Names() []string {
	return append([]string(nil), record.names...)
}

func (record *Record) Assignment() map[string]int64 {
	return maps.Clone(record.values)
}

// Parse reads a result file: nothing at all means infeasible; otherwise the first line holds the
// objective value as its trailing number and every other line is "<name> <value>". Leading
// comment lines that are not the objective header (e.g. "# Solution for model") are skipped.
func Parse(reader io.Reader, name string) (*Record, error) {
	var record *Record
	lineNumber := 0

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if record == nil {
			if strings.HasPrefix(line, "#") && !strings.Contains(strings.ToLower(line), "objective") {
				continue
			}
			objective, err := parseObjective(line)
			if err != nil {
				return nil, &ParseError{File: name, Line: lineNumber, Text: line, Reason: err.Error()}
			}
			record = NewRecord(objective)
			continue
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, &ParseError{File: name, Line: lineNumber, Text: line, Reason: "expected a variable name and a value"}
		}
		value, err := parseIntegral(fields[1])
		if err != nil {
			return nil, &ParseError{File: name, Line: lineNumber, Text: line, Reason: err.Error()}
		}
		record.Assign(fields[0], value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "cannot read solution %q", name)
	}

	if record == nil {
		return Infeasible(), nil // Empty result file is how the solver reports infeasibility
	}
	return record, nil
}

// ParseFile parses a result file; a missing file is read as an empty one
func ParseFile(path string) (*Record, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Infeasible(), nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "cannot open solution %q", path)
	}
	defer file.Close()
	return Parse(file, path)
}

// Write emits the record in the dialect Parse reads; an infeasible record writes nothing
func (record *Record) Write(writer io.Writer) error {
	if !record.Feasible {
		return nil
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "%v%d\n", objectiveHeader, record.Objective)
	for _, name := range record.names {
		fmt.Fprintf(&builder, "%v %d\n", name, record.values[name])
	}
	_, err := io.WriteString(writer, builder.String())
	return err
}

func (record *Record) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create solution %q", path)
	}
	defer file.Close()

	if err := record.Write(file); err != nil {
		return errors.Wrapf(err, "cannot write solution %q", path)
	}
	return file.Close()
}

func parseObjective(line string) (int64, error) {
	var text string
	if len(line) > len(objectiveHeader) && strings.EqualFold(line[:len(objectiveHeader)], objectiveHeader) {
		text = line[len(objectiveHeader):]
	} else {
		fields := strings.Fields(line)
		text = fields[len(fields)-1]
	}
	return parseIntegral(strings.TrimSpace(text))
}

func parseIntegral(text string) (int64, error) {
	if value, err := strconv.ParseInt(text, 10, 64); err == nil {
		return value, nil
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, errors.Errorf("%q is not a number", text)
	}
	rounded := math.Round(value)
	if math.Abs(value-rounded) > integralityTolerance {
		return 0, errors.Errorf("%q is not an integer", text)
	}
	return int64(rounded), nil
}
