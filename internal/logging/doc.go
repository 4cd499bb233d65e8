// Package logging provides structured logging for dsproj.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Automatic context field injection (op.id, op.name, project.dir, source.name)
//   - Secret redaction, including credentials embedded in remote URLs
//
// # Usage
//
// Create logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, os.Stderr)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx = logging.WithOperation(ctx, "source.add")
//	ctx = logging.WithSource(ctx, "voc")
//	logger.Info(ctx, "source added", zap.String("storage_mode", "linked"))
//
// Every entry logged under the same operation shares one op.id, which makes
// it possible to follow a failed add through each of its rollback steps.
//
// # Configuration Precedence
//
//  1. Defaults (NewDefaultConfig)
//  2. File (~/.config/dsproj/config.yaml)
//  3. Environment variables (DSPROJ_LOGGING_*)
//  4. Command line flags (--log-level, --log-format)
//
// # Testing
//
// NewTestLogger records every entry through zaptest/observer:
//
//	logger := logging.NewTestLogger()
//	logger.AssertLogged(t, zapcore.WarnLevel, "cleanup failed")
package logging
