package logger

var global = NewLogger("zizibee", DefaultConfig())

// Configure configures the global logger.
func Configure(c Config) {
	global.Configure(c)
}

// Sub returns a child of the global logger with namespace "ns".
func Sub(ns string, args ...interface{}) *Logger {
	return global.Sub(ns, args...)
}
