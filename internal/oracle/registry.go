package oracle

import (
	"fmt"
	"sort"
	"strings"
)

// OracleFactory is a function that creates a new Oracle instance from its
// configuration options.
type OracleFactory func(options map[string]interface{}) (Oracle, error)

var (
	registry = make(map[string]OracleFactory)
)

// Register adds an oracle factory to the registry.
func Register(name string, factory OracleFactory) {
	registry[name] = factory
}

// New creates an oracle instance by name.
func New(name string, options map[string]interface{}) (Oracle, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("oracle plugin not found: %s (available: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(options)
}

// NewChain creates each named oracle with the same options and chains them.
func NewChain(names []string, options map[string]interface{}) (Chain, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no oracles configured")
	}
	chain := make(Chain, 0, len(names))
	for _, name := range names {
		o, err := New(name, options)
		if err != nil {
			return nil, err
		}
		chain = append(chain, o)
	}
	return chain, nil
}

// Names lists registered oracles in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
