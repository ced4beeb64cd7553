package core

// Logger reports application events.
// expected args: error, map[string]interface{} and at most one identity value (e.g. account.Session) for the operator.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the operator attached to a log entry.
type Person interface {
	PersonID() string
	PersonName() string
	PersonEmail() string
}
