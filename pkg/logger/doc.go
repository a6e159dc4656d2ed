// Package logger builds configured slog.Logger instances with environment
// presets and context attribute injection.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "unblur"),
//		logger.WithContextExtractors(requestIDExtractor),
//	)
//	logger.SetAsDefault(log)
//
// Context extractors run at log time, so request-scoped values such as
// request IDs appear on every record emitted with the request's context.
package logger
