package topology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/comalice/accessorkit/internal/accessor"
)

func TestBuildWiresChildrenAndConnections(t *testing.T) {
	net := Network{
		Name: "top",
		Children: []AccessorSpec{
			{Name: "source", Kind: "atomic", SpontaneousOutputs: []string{"out"}},
			{Name: "sink", Kind: "atomic", InputPorts: []string{"in"}},
		},
		Connections: []ConnectionSpec{
			{FromChild: "source", FromPort: "out", ToChild: "sink", ToPort: "in"},
		},
	}

	root, err := Build(net)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !root.HasChildWithName("source") || !root.HasChildWithName("sink") {
		t.Fatal("expected both children to be attached")
	}

	sinkNode, err := root.Child("sink")
	if err != nil {
		t.Fatalf("Child: %v", err)
	}
	sink, ok := sinkNode.(*accessor.Atomic)
	if !ok {
		t.Fatal("sink should be an *accessor.Atomic")
	}
	in, err := sink.InputPort("in")
	if err != nil {
		t.Fatalf("InputPort: %v", err)
	}
	if !in.IsConnectedToSource() {
		t.Fatal("sink.in should be connected per the topology's connections")
	}
}

func TestLoadParsesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	body := "name: top\nchildren:\n  - name: a\n    kind: atomic\n    output_ports: [\"x\"]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	net, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if net.Name != "top" || len(net.Children) != 1 || net.Children[0].Name != "a" {
		t.Fatalf("unexpected network: %+v", net)
	}
}
