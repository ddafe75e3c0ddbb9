package main

import (
	"sync"

	"github.com/spf13/cobra"
)

// commandExecutionContext records which command is running and whether its
// output contract is structured logs, so fatal-path reporting can match
// the command's normal output.
type commandExecutionContext struct {
	CommandPath       string
	UsesStructuredLog bool
}

var (
	execContextMu sync.Mutex
	execContext   commandExecutionContext
)

func setCommandExecutionContext(ctx commandExecutionContext) {
	execContextMu.Lock()
	defer execContextMu.Unlock()
	execContext = ctx
}

func currentCommandExecutionContext() commandExecutionContext {
	execContextMu.Lock()
	defer execContextMu.Unlock()
	return execContext
}

func resetCommandExecutionContext() {
	setCommandExecutionContext(commandExecutionContext{})
}

// plainOutputCommands emit human-readable text for an operator at a
// terminal rather than structured logs.
var plainOutputCommands = map[string]struct{}{
	"logs": {},
}

func commandUsesStructuredLogging(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, plain := plainOutputCommands[c.Name()]; plain {
			return false
		}
	}
	return true
}
