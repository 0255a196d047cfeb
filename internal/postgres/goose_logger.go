package postgres

import (
	"github.com/branchschool/installments/internal/logger"
)

// gooseLogger routes migration output through the application logger
type gooseLogger struct {
	l *logger.Logger
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) { g.l.Fatalf(format, v...) }
func (g gooseLogger) Printf(format string, v ...interface{}) { g.l.Infof(format, v...) }
