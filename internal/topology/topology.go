// Package topology loads a declarative accessor network from YAML: the
// children, their ports, and the connections between them, for examples and
// demos that would rather describe a network in a file than build it with
// Go code.
package topology

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/comalice/accessorkit/internal/accessor"
)

// AccessorSpec describes one child accessor: its kind, ports, and (for
// atomics) which output ports are spontaneous.
type AccessorSpec struct {
	Name               string   `yaml:"name"`
	Kind               string   `yaml:"kind"` // "atomic" or "composite"
	InputPorts         []string `yaml:"input_ports"`
	OutputPorts        []string `yaml:"output_ports"`
	SpontaneousOutputs []string `yaml:"spontaneous_outputs"`
	Children           []AccessorSpec `yaml:"children"`
	Connections        []ConnectionSpec `yaml:"connections"`
}

// ConnectionSpec wires one child's output port to another child's input
// port within the same composite.
type ConnectionSpec struct {
	FromChild string `yaml:"from_child"`
	FromPort  string `yaml:"from_port"`
	ToChild   string `yaml:"to_child"`
	ToPort    string `yaml:"to_port"`
}

// Network is the root of a declarative topology file: a single top-level
// composite's children and internal connections.
type Network struct {
	Name        string           `yaml:"name"`
	Children    []AccessorSpec   `yaml:"children"`
	Connections []ConnectionSpec `yaml:"connections"`
}

// Load reads and parses a topology file without building it.
func Load(path string) (Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Network{}, fmt.Errorf("read topology %q: %w", path, err)
	}
	var net Network
	if err := yaml.Unmarshal(data, &net); err != nil {
		return Network{}, fmt.Errorf("parse topology %q: %w", path, err)
	}
	return net, nil
}

// Build constructs a *accessor.Composite named net.Name with every
// described child attached and connection wired, ready to be added to a
// Host.
func Build(net Network) (*accessor.Composite, error) {
	root, err := accessor.NewComposite(net.Name)
	if err != nil {
		return nil, fmt.Errorf("topology root %q: %w", net.Name, err)
	}
	if err := populate(root, net.Children, net.Connections); err != nil {
		return nil, err
	}
	return root, nil
}

func populate(parent *accessor.Composite, children []AccessorSpec, connections []ConnectionSpec) error {
	for _, spec := range children {
		child, err := buildAccessor(spec)
		if err != nil {
			return err
		}
		if err := parent.AddChild(child); err != nil {
			return fmt.Errorf("add child %q: %w", spec.Name, err)
		}
	}

	for _, conn := range connections {
		if err := parent.ConnectChildren(conn.FromChild, conn.FromPort, conn.ToChild, conn.ToPort); err != nil {
			return fmt.Errorf("connect %s.%s -> %s.%s: %w",
				conn.FromChild, conn.FromPort, conn.ToChild, conn.ToPort, err)
		}
	}
	return nil
}

func buildAccessor(spec AccessorSpec) (accessor.Node, error) {
	switch spec.Kind {
	case "composite":
		c, err := accessor.NewComposite(spec.Name)
		if err != nil {
			return nil, err
		}
		if err := populate(c, spec.Children, spec.Connections); err != nil {
			return nil, err
		}
		return c, nil
	case "atomic", "":
		opts := []accessor.AtomicOption{
			accessor.WithInputPorts(spec.InputPorts...),
			accessor.WithOutputPorts(spec.OutputPorts...),
			accessor.WithSpontaneousOutputPorts(spec.SpontaneousOutputs...),
		}
		return accessor.NewAtomic(spec.Name, opts...)
	default:
		return nil, fmt.Errorf("accessor %q: unknown kind %q", spec.Name, spec.Kind)
	}
}
