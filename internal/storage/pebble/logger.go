package pebblestore

import (
	"fmt"

	logpkg "github.com/BaraaAbuhalima/counter-app/pkg/log"
)

// pebbleLogger routes Pebble's printf-style diagnostics into the service logger.
type pebbleLogger struct {
	l logpkg.Logger
}

func newPebbleLogger(l logpkg.Logger) *pebbleLogger {
	return &pebbleLogger{l: l.WithComponent("pebble")}
}

func (p *pebbleLogger) Infof(format string, args ...interface{}) {
	p.l.Debug(fmt.Sprintf(format, args...))
}

func (p *pebbleLogger) Errorf(format string, args ...interface{}) {
	p.l.Error(fmt.Sprintf(format, args...))
}

func (p *pebbleLogger) Fatalf(format string, args ...interface{}) {
	p.l.Fatal(fmt.Sprintf(format, args...))
}
