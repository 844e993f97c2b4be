package core

// Logger reports application events to the configured backend(s).
// args may carry extra context: errors, a map[string]interface{} of fields
// and/or the acting Identity.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Identity is the acting user as supplied by the identity collaborator.
// The core trusts it; authentication happens upstream.
type Identity struct {
	ID    string
	Name  string
	Email string
}
