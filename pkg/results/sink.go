package results

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/limaJavier/ilpenum/pkg/solution"
)

type Format string

const (
	Summary  Format = "summary"  // "<objective>: [a, b, c]"
	Detailed Format = "detailed" // "# Objective Value = N" and every "name value"
)

var Formats = []Format{Summary, Detailed}

// Sink receives every accepted solution in discovery order
type Sink interface {
	Record(record *solution.Record) error
}

// Entry is one accepted solution as kept by a MemorySink
type Entry struct {
	Objective int64
	Variables []string
}

type fileSink struct {
	path   string
	format Format
}

// NewFileSink appends to path, opening and closing it for every record so that progress
// survives a crash mid-run. Nothing is deduplicated.
func NewFileSink(path string, format Format) (Sink, error) {
	if !slices.Contains(Formats, format) {
		return nil, errors.Errorf("%v is not a valid result format", format)
	}
	return &fileSink{path: path, format: format}, nil
}

func (sink *fileSink) Record(record *solution.Record) error {
	file, err := os.OpenFile(sink.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return errors.Wrapf(err, "cannot open results file %q", sink.path)
	}
	defer file.Close()

	if _, err := file.WriteString(FormatRecord(record, sink.format)); err != nil {
		return errors.Wrapf(err, "cannot append to results file %q", sink.path)
	}
	return file.Close()
}

func FormatRecord(record *solution.Record, format Format) string {
	if format == Detailed {
		var builder strings.Builder
		fmt.Fprintf(&builder, "# Objective Value = %d\n", record.Objective)
		for _, name := range record.Names() {
			value, _ := record.Value(name)
			fmt.Fprintf(&builder, "%v %d\n", name, value)
		}
		builder.WriteString("\n")
		return builder.String()
	}
	return fmt.Sprintf("%d: [%v]\n", record.Objective, strings.Join(record.Ones(), ", "))
}

// MemorySink keeps entries in memory, it is safe for concurrent use
type MemorySink struct {
	mutex   sync.Mutex
	entries []Entry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (sink *MemorySink) Record(record *solution.Record) error {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	sink.entries = append(sink.entries, Entry{Objective: record.Objective, Variables: record.Ones()})
	return nil
}

func (sink *MemorySink) Entries() []Entry {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	return slices.Clone(sink.entries)
}

func (sink *MemorySink) Lines() []string {
	return lo.Map(sink.Entries(), func(entry Entry, _ int) string {
		return fmt.Sprintf("%d: [%v]", entry.Objective, strings.Join(entry.Variables, ", "))
	})
}

// Tee forwards every record to each sink in order, stopping at the first failure
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

func (sinks tee) Record(record *solution.Record) error {
	for _, sink := range sinks {
		if err := sink.Record(record); err != nil {
			return err
		}
	}
	return nil
}
