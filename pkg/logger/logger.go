// Copyright 2018-2023 CERN
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// In applying this license, CERN does not waive the privileges and immunities
// granted to it by virtue of its status as an Intergovernmental Organization
// or submit itself to any jurisdiction.

// Package logger creates the process-wide zerolog logger.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Mode changes the logging format.
type Mode string

const (
	// JSONMode outputs JSON.
	JSONMode Mode = "json"
	// ConsoleMode outputs human readable logs.
	ConsoleMode Mode = "console"
)

// Option defines a single option function.
type Option func(o *Options)

// Options defines the available options for this package.
type Options struct {
	Level  string
	Writer io.Writer
	Mode   Mode
}

// WithLevel provides a function to set the log level.
func WithLevel(lvl string) Option {
	return func(o *Options) {
		o.Level = lvl
	}
}

// WithWriter provides a function to set the log output and format.
func WithWriter(w io.Writer, m Mode) Option {
	return func(o *Options) {
		o.Writer = w
		o.Mode = m
	}
}

// New creates a new logger from the given options.
func New(opts ...Option) *zerolog.Logger {
	options := Options{
		Level:  zerolog.InfoLevel.String(),
		Writer: os.Stderr,
		Mode:   JSONMode,
	}
	for _, o := range opts {
		o(&options)
	}

	lvl, err := zerolog.ParseLevel(options.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	w := options.Writer
	if options.Mode == ConsoleMode {
		w = zerolog.ConsoleWriter{Out: w}
	}

	l := zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	return &l
}
