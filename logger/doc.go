// Package logger provides structured logging using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying run and participant fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("ppc").WithRun(runID)
//	log.Info("run finished", logger.Fields("produced", n))
package logger
