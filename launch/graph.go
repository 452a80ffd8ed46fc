// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package launch

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is the resolved process/unit topology of a Manifest, with
// deterministic ordering, ready to render for documentation or
// debugging.
type Graph struct {
	Processes []ProcessNode
}

type ProcessNode struct {
	Name  string
	Units []UnitNode
}

type UnitNode struct {
	Name     string
	UnitType string
}

// BuildGraph resolves m into a Graph, sorting process and unit names so
// RenderMermaid's output is stable across runs.
func BuildGraph(m *Manifest) *Graph {
	g := &Graph{}
	names := m.ProcessNames()
	sort.Strings(names)
	for _, pname := range names {
		proc := m.Processes[pname]
		unitNames := make([]string, 0, len(proc.Units))
		for uname := range proc.Units {
			unitNames = append(unitNames, uname)
		}
		sort.Strings(unitNames)

		node := ProcessNode{Name: pname}
		for _, uname := range unitNames {
			node.Units = append(node.Units, UnitNode{Name: uname, UnitType: proc.Units[uname].UnitType})
		}
		g.Processes = append(g.Processes, node)
	}
	return g
}

// RenderMermaid renders g as a Mermaid flowchart: one subgraph per
// process, one node per unit. This is a supplemented feature grounded on
// the original's mermaid_formatter.cpp, simplified to the statically
// known process/unit topology — handler input/output wiring there is
// only knowable once a unit is actually constructed, which this launcher
// never does ahead of forking the owning process.
func RenderMermaid(g *Graph) string {
	var b strings.Builder
	b.WriteString("flowchart TB\n")
	for _, proc := range g.Processes {
		fmt.Fprintf(&b, "  subgraph process_%s[\"%s\"]\n", proc.Name, proc.Name)
		for _, u := range proc.Units {
			fmt.Fprintf(&b, "    unit_%s_%s[\"%s (%s)\"]\n", proc.Name, u.Name, u.Name, u.UnitType)
		}
		b.WriteString("  end\n")
	}
	return b.String()
}
