// Package priority implements the causality analysis a host runs before (and
// after every structural change to) its accessor network: every accessor is
// assigned a priority derived from its dependency depth, so the director's
// callback queue breaks same-instant ties in an order consistent with data
// dependencies rather than arbitrarily.
package priority

import (
	"fmt"
	"math"
	"sort"

	"github.com/comalice/accessorkit/internal/accessor"
	"github.com/comalice/accessorkit/internal/director"
	"github.com/comalice/accessorkit/internal/port"
)

// ErrCausalityLoop is returned when the dependency graph contains a cycle
// that forward/backward dependency pruning did not break.
var ErrCausalityLoop = fmt.Errorf("priority: causality loop detected")

// Assign walks root's accessor tree, computes each accessor's dependency
// depth, and assigns priorities in ascending depth order starting at
// basePriority. If d is non-nil and updateCallbacks is true, every
// already-scheduled callback belonging to a reprioritized accessor is moved
// to its new priority via d.HandlePriorityUpdate.
func Assign(root accessor.Node, d *director.Director, basePriority int, updateCallbacks bool) error {
	portDepths := make(map[port.Port]int)
	accessorDepths := make(map[int][]accessor.Node)

	composite, ok := root.(*accessor.Composite)
	if !ok {
		return fmt.Errorf("priority: root accessor %q is not a composite", root.Name())
	}

	c := &computation{portDepths: portDepths, accessorDepths: accessorDepths}
	if _, err := c.compositeDepth(composite); err != nil {
		return err
	}

	depths := make([]int, 0, len(accessorDepths))
	for depth := range accessorDepths {
		depths = append(depths, depth)
	}
	sort.Ints(depths)

	priority := basePriority
	for _, depth := range depths {
		if depth > priority {
			priority = depth
		}
		for _, a := range accessorDepths[depth] {
			if updateCallbacks && d != nil {
				d.HandlePriorityUpdate(a.Priority(), priority)
			}
			a.SetPriority(priority)
			priority++
		}
	}
	return nil
}

type computation struct {
	portDepths     map[port.Port]int
	accessorDepths map[int][]accessor.Node
}

func (c *computation) compositeDepth(composite *accessor.Composite) (int, error) {
	minChildDepth := math.MaxInt
	for _, child := range composite.GetChildren() {
		var (
			childDepth int
			err        error
		)
		if nested, ok := child.(*accessor.Composite); ok {
			childDepth, err = c.compositeDepth(nested)
		} else if atomic, ok := child.(*accessor.Atomic); ok {
			childDepth, err = c.atomicDepth(atomic)
		}
		if err != nil {
			return 0, err
		}
		if childDepth < minChildDepth {
			minChildDepth = childDepth
		}
	}
	if minChildDepth == math.MaxInt {
		minChildDepth = 0
	}

	depth := minChildDepth
	c.accessorDepths[depth] = append([]accessor.Node{composite}, c.accessorDepths[depth]...)
	return depth, nil
}

func (c *computation) atomicDepth(a *accessor.Atomic) (int, error) {
	maxInputDepth := 0
	for _, p := range a.InputPorts() {
		if _, known := c.portDepths[p]; !known {
			if err := c.inputPortDepth(p, a, map[port.Port]bool{}, map[port.Port]bool{}); err != nil {
				return 0, err
			}
		}
		if c.portDepths[p] > maxInputDepth {
			maxInputDepth = c.portDepths[p]
		}
	}

	minOutputDepth := math.MaxInt
	for _, p := range a.OutputPorts() {
		if _, known := c.portDepths[p]; !known {
			if err := c.outputPortDepth(p, a, map[port.Port]bool{}, map[port.Port]bool{}); err != nil {
				return 0, err
			}
		}
		if c.portDepths[p] < minOutputDepth {
			minOutputDepth = c.portDepths[p]
		}
	}

	depth := maxInputDepth
	if a.HasOutputPorts() {
		depth = minOutputDepth
	}
	c.accessorDepths[depth] = append(c.accessorDepths[depth], a)
	return depth, nil
}

func (c *computation) inputPortDepth(inputPort port.Port, owner *accessor.Atomic, visitedInputs, visitedOutputs map[port.Port]bool) error {
	depth := 0
	equivalentNames := owner.EquivalentPorts(inputPort.Name())
	equivalentPorts := make([]port.Port, 0, len(equivalentNames))
	for _, name := range equivalentNames {
		p, err := owner.InputPort(name)
		if err != nil {
			return err
		}
		equivalentPorts = append(equivalentPorts, p)
	}

	for _, equivalentPort := range equivalentPorts {
		visitedInputs[equivalentPort] = true
		if !equivalentPort.IsConnectedToSource() {
			continue
		}
		sourceOutput := resolveSourceOutput(equivalentPort)
		if sourceOutput == nil {
			continue
		}

		if _, known := c.portDepths[sourceOutput]; !known {
			if visitedOutputs[sourceOutput] {
				return fmt.Errorf("%w: involving port %q", ErrCausalityLoop, sourceOutput.FullName())
			}
			sourceOwner, ok := sourceOutput.Owner().(*accessor.Atomic)
			if !ok {
				continue
			}
			if err := c.outputPortDepth(sourceOutput, sourceOwner, visitedInputs, visitedOutputs); err != nil {
				return err
			}
		}

		if newDepth := c.portDepths[sourceOutput] + 1; newDepth > depth {
			depth = newDepth
		}
	}

	for _, equivalentPort := range equivalentPorts {
		c.portDepths[equivalentPort] = depth
	}
	return nil
}

func (c *computation) outputPortDepth(outputPort port.Port, owner *accessor.Atomic, visitedInputs, visitedOutputs map[port.Port]bool) error {
	visitedOutputs[outputPort] = true
	depth := 0

	depNames := owner.InputPortDependencies(outputPort.Name())
	for _, name := range depNames {
		inputPort, err := owner.InputPort(name)
		if err != nil {
			return err
		}
		if _, known := c.portDepths[inputPort]; !known {
			if visitedInputs[inputPort] {
				return fmt.Errorf("%w: involving port %q", ErrCausalityLoop, inputPort.FullName())
			}
			if err := c.inputPortDepth(inputPort, owner, visitedInputs, visitedOutputs); err != nil {
				return err
			}
		}
		if c.portDepths[inputPort] > depth {
			depth = c.portDepths[inputPort]
		}
	}

	c.portDepths[outputPort] = depth
	return nil
}

// resolveSourceOutput walks from inputPort's immediate source back through
// any transparent composite relay ports to the true atomic output port that
// ultimately feeds it, returning nil if the chain dead-ends unconnected.
func resolveSourceOutput(inputPort port.Port) port.Port {
	sourcePort := inputPort.Source()
	for sourcePort.Owner().IsComposite() {
		if !sourcePort.IsConnectedToSource() {
			return nil
		}
		sourcePort = sourcePort.Source()
	}
	return sourcePort
}
