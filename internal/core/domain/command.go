package domain

// Command is an external process invocation.
type Command struct {
	Args []string
	Dir  string
	Env  []string
}

// Notification is a user-facing report of a failed compile step.
type Notification struct {
	Title string
	Task  string
	Err   error
}
