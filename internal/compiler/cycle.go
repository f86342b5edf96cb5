package compiler

import (
	"fmt"
	"strings"
)

// boneGraph maps a bone to its parent (at most one edge per node).
type boneGraph map[string][]string

// parentCycles finds bones whose parent chain loops back on itself.
//
// The algorithm:
//  1. Build the bone → parent graph, skipping unknown parents
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1, or a bone that is its own parent
//
// Each cycle is returned as a path starting and ending at the member
// declared first, e.g. ["a", "b", "a"]. Cycles are ordered by that member's
// declaration index.
func parentCycles(order []string, parents map[string]string) [][]string {
	graph := make(boneGraph, len(order))
	for _, name := range order {
		graph[name] = []string{}
		if p, ok := parents[name]; ok && p != "" {
			if _, known := parents[p]; known {
				graph[name] = append(graph[name], p)
			}
		}
	}

	position := make(map[string]int, len(order))
	for i, name := range order {
		if _, seen := position[name]; !seen {
			position[name] = i
		}
	}

	var cycles [][]string
	for _, scc := range tarjanSCC(order, graph) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], graph) {
			continue
		}
		start := scc[0]
		for _, n := range scc[1:] {
			if position[n] < position[start] {
				start = n
			}
		}
		path := []string{start}
		for next := graph[start][0]; next != start; next = graph[next][0] {
			path = append(path, next)
		}
		cycles = append(cycles, append(path, start))
	}

	// SCCs come out in completion order; report in declaration order.
	for i := 1; i < len(cycles); i++ {
		for j := i; j > 0 && position[cycles[j][0]] < position[cycles[j-1][0]]; j-- {
			cycles[j], cycles[j-1] = cycles[j-1], cycles[j]
		}
	}
	return cycles
}

func formatCycle(path []string) string {
	return fmt.Sprintf("parent cycle: %s", strings.Join(path, " → "))
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph boneGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in the given order so results are deterministic.
func tarjanSCC(order []string, graph boneGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}
