package app

import "strings"

// Command statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Command describes the CLI command an app instance was created for.
type Command struct {
	Name   string
	Args   string
	Status string // "success" or "error"
}

// NewCommand creates a command record that succeeds unless marked otherwise.
func NewCommand(name string, args ...string) *Command {
	return &Command{
		Name:   name,
		Args:   strings.Join(args, " "),
		Status: StatusSuccess,
	}
}

// Failed reports whether the command was marked as failed.
func (c *Command) Failed() bool {
	return c.Status == StatusError
}
