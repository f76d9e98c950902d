package publish

// Environment describes where the provider runs. It decides whether
// publishing may happen.
type Environment struct {
	// Production is true when the host runs in production.
	Production bool
	// Interactive is true when running from a console.
	Interactive bool
	// Override forces publishing regardless of the other flags.
	Override bool
}

// Permits reports whether publishing is allowed: outside production, from a
// console, or when overridden.
func (e Environment) Permits() bool {
	return !e.Production || e.Interactive || e.Override
}

// CommandsPermitted reports whether maintenance commands are registered.
func (e Environment) CommandsPermitted() bool {
	return e.Interactive || e.Override
}
