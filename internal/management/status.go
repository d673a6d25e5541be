package management

// ServerStatus is the controller's own view of the server, derived from the
// process table and the status marker file. It never looks at the contents
// of Status.json.
type ServerStatus int

const (
	StatusUnknown ServerStatus = iota
	StatusRunning
	StatusStopped
	StatusStarting
	StatusStopping
	StatusError
)

func (s ServerStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusStopping:
		return "stopping"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
