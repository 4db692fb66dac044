// Package logger provides structured logging for tabflow using zerolog.
//
// Loggers are scoped by component ("dag", "scheduler", "api") and carry
// structured fields for node ids, operations and run ids.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("scheduler")
//	log.Info("node finished", logger.NodeFields(3, "scale"))
package logger
