// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

package worker

import (
	"bytes"
	"sync"

	"github.com/seedwarden/seedwarden/internal/logging"
)

// outputLogger forwards a worker's combined stdout/stderr into the
// supervisor's log stream, one event per line, tagged with the unit. This
// replaces per-worker terminal windows: operators follow a worker by
// filtering on its unit field.
type outputLogger struct {
	unit string

	mu  sync.Mutex
	buf bytes.Buffer
}

func newOutputLogger(unit string) *outputLogger {
	return &outputLogger{unit: unit}
}

// Write implements io.Writer. Partial lines are buffered until the newline
// arrives.
func (o *outputLogger) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.buf.Write(p)
	for {
		line, err := o.buf.ReadString('\n')
		if err != nil {
			// Incomplete line; put it back and wait for more.
			o.buf.WriteString(line)
			break
		}
		o.emit(line[:len(line)-1])
	}
	return len(p), nil
}

// Flush emits any buffered partial line. Called once the process exits.
func (o *outputLogger) Flush() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.buf.Len() > 0 {
		o.emit(o.buf.String())
		o.buf.Reset()
	}
}

func (o *outputLogger) emit(line string) {
	if line == "" {
		return
	}
	logging.Debug().Str("unit", o.unit).Msg(line)
}
