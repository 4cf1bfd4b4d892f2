// Package logging provides structured logging using uber/zap.
//
// Production builds emit JSON, development builds emit colored console
// output. Every agent component receives a named child logger so lines can
// be filtered per phase:
//
//	logger := logging.NewDefault()
//	planner := logger.Component("planner")
//	planner.Info("plan ready", zap.String("tier", "template"), zap.Int("steps", 4))
package logging
