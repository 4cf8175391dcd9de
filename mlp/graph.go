package mlp

import (
	"fmt"

	"github.com/awalterschulze/gographviz"
)

// ToDot renders the layer topology of the network as a graphviz digraph. Each layer is a node
// labelled with its width, each edge with the number of weights between two layers.
func (n *Network) ToDot() string {
	name := n.Name
	if name == "" {
		name = "N"
	}
	g := gographviz.NewGraph()
	if err := g.SetName(name); err != nil {
		panic(err)
	}
	if err := g.SetDir(true); err != nil {
		panic(err)
	}

	for i, l := range n.Layers {
		label := fmt.Sprintf("%q", fmt.Sprintf("%s\n%d units", l.Name, l.Width()))
		if i == OutputLayer {
			label = fmt.Sprintf("%q", fmt.Sprintf("%s\n%d units (%s)", l.Name, l.Width(), n.Head))
		}
		attrs := map[string]string{
			"shape": "box",
			"label": label,
		}
		if err := g.AddNode(name, l.Name, attrs); err != nil {
			panic(err)
		}
	}
	for i := 0; i < OutputLayer; i++ {
		from, to := n.Layers[i], n.Layers[i+1]
		attrs := map[string]string{
			"label": fmt.Sprintf("%d", from.Width()*to.Width()),
		}
		if err := g.AddEdge(from.Name, to.Name, true, attrs); err != nil {
			panic(err)
		}
	}
	return g.String()
}
