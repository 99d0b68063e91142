package core

// Logger logs messages along with any number of extra args
// (errors, map[string]interface{} of extra data, the requesting Identity).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Identity is the authenticated caller, as asserted by a signed token.
type Identity struct {
	ID       string
	Name     string
	Email    string
	Username string
}
