package alohacam

// StatusKind is the lifecycle stage of a CameraSession.
type StatusKind int

const (
	// No device configured yet. Transient, during construction and the
	// one-time permission check.
	StatusUndefined StatusKind = iota

	// Normal operation, re-entered after every successful reconfiguration.
	StatusConfigured

	// Terminal: the user denied camera or microphone access.
	StatusNotAuthorized

	// Terminal: a required input or output could not be attached.
	StatusConfigurationFailed
)

func (k StatusKind) String() string {
	switch k {
	case StatusUndefined:
		return "undefined"
	case StatusConfigured:
		return "configured"
	case StatusNotAuthorized:
		return "not authorized"
	case StatusConfigurationFailed:
		return "configuration failed"
	}
	return "unknown"
}

type Status struct {
	Kind StatusKind

	// Human-readable reason, for StatusConfigurationFailed.
	Message string
}

func ConfigurationFailed(message string) Status {
	return Status{Kind: StatusConfigurationFailed, Message: message}
}

// Terminal statuses are sticky for the life of the session.
func (s Status) Terminal() bool {
	return s.Kind == StatusNotAuthorized || s.Kind == StatusConfigurationFailed
}

func (s Status) String() string {
	if s.Message != "" {
		return s.Kind.String() + ": " + s.Message
	}
	return s.Kind.String()
}
