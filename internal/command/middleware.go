package command

// Middleware wraps a command's runner (e.g. history log, metrics).
type Middleware func(cmd *Command, next Runner) Runner

// ApplyMiddlewares wraps run in mws; the first in the list is the outermost.
func ApplyMiddlewares(cmd *Command, run Runner, mws ...Middleware) Runner {
	for i := len(mws) - 1; i >= 0; i-- {
		run = mws[i](cmd, run)
	}
	return run
}
