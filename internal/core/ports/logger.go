package ports

// Logger defines the interface for logging.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Debug(msg string, attrs ...any)
	Info(msg string, attrs ...any)
	Warn(msg string, attrs ...any)
	Error(err error)

	// SetJSON switches between JSON and pretty output.
	SetJSON(enable bool)
	// SetVerbose enables debug output.
	SetVerbose(enable bool)
}
