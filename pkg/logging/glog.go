package logging

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	log "github.com/golang/glog"
)

type glogLogger struct {
	namespace string
}

// NewGlog returns a logger backed by glog; tags lose their colors and go through glog's severities
func NewGlog(namespace string) Logger {
	return &glogLogger{namespace: namespace}
}

func (logger *glogLogger) Printf(format string, args ...any) {
	log.InfoDepth(1, fmt.Sprintf("[%v] %v", logger.namespace, fmt.Sprintf(format, args...)))
}

func (logger *glogLogger) Errorf(format string, args ...any) {
	log.ErrorDepth(1, fmt.Sprintf("[%v] %v", logger.namespace, fmt.Sprintf(format, args...)))
}

func (logger *glogLogger) Write(line string) {
	log.InfoDepth(1, fmt.Sprintf("[%v] %v", logger.namespace, strings.TrimRight(line, "\n")))
}

func (logger *glogLogger) Named(namespace string, _ color.Attribute) Logger {
	return &glogLogger{namespace: namespace}
}
