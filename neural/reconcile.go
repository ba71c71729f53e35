package neural

import "github.com/pthm-cable/petri/rng"

// Reconcile adjusts the brain's input and output node counts to match the
// sensor and actuator sets, preserving unaffected structure. Extra nodes are
// removed from the end of their group along with any connections referencing
// them; new nodes get fresh ids and are wired across to the opposite layer
// with small random weights.
func Reconcile(d *DNA, lin *Lineage, r *rng.Source) {
	reconcileLayer(&d.Brain, NodeInput, InputCount(d.Sensors), lin, r)
	reconcileLayer(&d.Brain, NodeOutput, OutputCount(d.Actuators), lin, r)
}

func reconcileLayer(g *BrainGenome, t NodeType, want int, lin *Lineage, r *rng.Source) {
	have := g.nodesOfType(t)

	for len(have) > want {
		victim := have[len(have)-1]
		have = have[:len(have)-1]
		removeNode(g, victim.ID)
	}

	for i := len(have); i < want; i++ {
		id := g.maxNodeID() + 1
		act := ActLinear
		if t == NodeOutput {
			act = ActTanh
		}
		g.Nodes = append(g.Nodes, NodeGene{ID: id, Type: t, Activation: act})

		// Wire the new node across to the opposite layer.
		opposite := NodeOutput
		if t == NodeOutput {
			opposite = NodeInput
		}
		for _, peer := range g.nodesOfType(opposite) {
			from, to := id, peer.ID
			if t == NodeOutput {
				from, to = peer.ID, id
			}
			if g.hasConn(from, to) {
				continue
			}
			g.Conns = append(g.Conns, ConnGene{
				Innovation: lin.Innovation(from, to),
				From:       from,
				To:         to,
				Weight:     r.Range(-0.5, 0.5),
				Enabled:    true,
			})
		}
	}
}

func removeNode(g *BrainGenome, id int) {
	nodes := g.Nodes[:0]
	for _, n := range g.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	g.Nodes = nodes

	conns := g.Conns[:0]
	for _, c := range g.Conns {
		if c.From != id && c.To != id {
			conns = append(conns, c)
		}
	}
	g.Conns = conns
}
