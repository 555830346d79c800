// log implements logging.
//
// SPDX-License-Identifier: MIT
// Copyright (c) 2019 Hadrien Chauvin
package log

import (
	"fmt"
	"github.com/fatih/color"
	"io"
	"os"
)

// Logger logs messages prefixed by a log domain.  Messages go to
// Writer, or to the standard output when Writer is nil.
type Logger struct {
	Writer io.Writer
}

var formatPrefix = color.New(color.Bold).SprintFunc()
var formatWarningPrefix = color.New(color.FgMagenta).SprintFunc()
var formatErrorPrefix = color.New(color.FgRed).SprintFunc()

// Info logs an info message for the given log domain.
func (l *Logger) Info(domain string, message string, args ...interface{}) {
	l.printf(formatPrefix(domain+": ")+message+"\n", args...)
}

// Warning logs a warning message for the given log domain.
func (l *Logger) Warning(domain string, message string, args ...interface{}) {
	l.printf(formatPrefix(domain+":")+formatWarningPrefix("WARNING: ")+message+"\n", args...)
}

// Error logs an error message for the given log domain.
func (l *Logger) Error(domain string, message string, args ...interface{}) {
	l.printf(formatPrefix(domain+":")+formatErrorPrefix("ERROR: ")+message+"\n", args...)
}

func (l *Logger) printf(format string, args ...interface{}) {
	var w io.Writer = os.Stdout
	if l != nil && l.Writer != nil {
		w = l.Writer
	}
	// Logging is best effort.
	_, _ = fmt.Fprintf(w, format, args...)
}
