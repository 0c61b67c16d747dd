package solver

import "github.com/kilianp07/tecsched/core/factory"

var registry = factory.NewRegistry[Solver]()

// Register makes a strategy available under name.
func Register(name string, f factory.Factory[Solver]) error {
	return registry.Register(name, f)
}

// MustRegister is Register for init functions.
func MustRegister(name string, f factory.Factory[Solver]) {
	registry.MustRegister(name, f)
}

// New builds the strategy registered under name with its specialized settings.
func New(name string, conf map[string]any) (Solver, error) {
	return registry.Create(factory.ModuleConfig{Type: name, Conf: conf})
}

// Names lists the registered strategies.
func Names() []string { return registry.Names() }
