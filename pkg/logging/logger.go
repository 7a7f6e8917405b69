package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Logger is the output sink every component receives explicitly. Messages are tagged with the
// logger's namespace; Write passes raw solver output through with the same tag.
type Logger interface {
	Printf(format string, args ...any)
	Errorf(format string, args ...any)
	Write(line string)
	Named(namespace string, tag color.Attribute) Logger
}

var (
	DefaultTag = color.FgMagenta
	SolverTag  = color.FgGreen
)

type console struct {
	mutex     *sync.Mutex // Shared by every logger derived from the same console
	out       io.Writer
	errOut    io.Writer
	namespace string
	tag       *color.Color
	errorTag  *color.Color
	noColor   bool
}

// NewConsole returns a logger printing "[Namespace] message" lines to out and errors to errOut.
// Colors follow fatih/color's terminal detection unless noColor is set.
func NewConsole(out, errOut io.Writer, namespace string, noColor bool) Logger {
	return newConsole(&sync.Mutex{}, out, errOut, namespace, DefaultTag, noColor)
}

func newConsole(mutex *sync.Mutex, out, errOut io.Writer, namespace string, tag color.Attribute, noColor bool) *console {
	logger := &console{
		mutex:     mutex,
		out:       out,
		errOut:    errOut,
		namespace: namespace,
		tag:       color.New(tag),
		errorTag:  color.New(color.FgRed),
		noColor:   noColor,
	}
	if noColor {
		logger.tag.DisableColor()
		logger.errorTag.DisableColor()
	}
	return logger
}

func (logger *console) Printf(format string, args ...any) {
	logger.print(logger.out, fmt.Sprintf("[%v] %v\n", logger.tag.Sprint(logger.namespace), fmt.Sprintf(format, args...)))
}

func (logger *console) Errorf(format string, args ...any) {
	logger.print(logger.errOut, fmt.Sprintf("[%v:%v] %v\n", logger.tag.Sprint(logger.namespace), logger.errorTag.Sprint("ERROR"), fmt.Sprintf(format, args...)))
}

func (logger *console) Write(line string) {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	logger.print(logger.out, fmt.Sprintf("[%v] %v", logger.tag.Sprint(logger.namespace), line))
}

func (logger *console) Named(namespace string, tag color.Attribute) Logger {
	return newConsole(logger.mutex, logger.out, logger.errOut, namespace, tag, logger.noColor)
}

func (logger *console) print(writer io.Writer, text string) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	io.WriteString(writer, text)
}

type discard struct{}

// Discard returns a logger that drops everything
func Discard() Logger { return discard{} }

func (discard) Printf(string, ...any)                { /* Nothing to do */ }
func (discard) Errorf(string, ...any)                { /* Nothing to do */ }
func (discard) Write(string)                         { /* Nothing to do */ }
func (discard) Named(string, color.Attribute) Logger { return discard{} }
