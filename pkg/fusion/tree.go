package fusion

import "encoding/json"

// NodeKind discriminates production tree nodes in JSON output.
type NodeKind string

const (
	KindDirect      NodeKind = "direct"
	KindRecipe      NodeKind = "recipe"
	KindCycleMember NodeKind = "cycle_node"
	KindCycleGroup  NodeKind = "cycle"
)

// Node is a production tree node. The set of implementations is closed:
// *DirectNode, *RecipeNode, *CycleMemberNode and *CycleGroupNode.
type Node interface {
	// Commodity returns the id of the commodity the node produces.
	Commodity() string
	Kind() NodeKind
	node()
}

// DirectNode is a leaf gathered at its rate.
type DirectNode struct {
	ID       string  `json:"commodity"`
	Rate     float64 `json:"rate"`
	Quantity float64 `json:"quantity"`
}

// RecipeNode produces its commodity with a chosen recipe.
type RecipeNode struct {
	ID           string  `json:"commodity"`
	Recipe       Recipe  `json:"recipe"`
	Inputs       [2]Node `json:"inputs"`
	Quantity     float64 `json:"quantity"`
	CraftsNeeded int     `json:"crafts_needed"`
}

// CycleMemberNode has the shape of a RecipeNode but marks a commodity that
// belongs to a detected cycle and was reached through baseline choices.
type CycleMemberNode struct {
	ID           string  `json:"commodity"`
	Recipe       Recipe  `json:"recipe"`
	Inputs       [2]Node `json:"inputs"`
	Quantity     float64 `json:"quantity"`
	CraftsNeeded int     `json:"crafts_needed"`
}

// CycleStats are the per-cycle figures derived while propagating quantities.
type CycleStats struct {
	BaseOutput            int     `json:"base_output"`
	Multiplier            float64 `json:"multiplier"`
	ExpectedOutput        float64 `json:"expected_output"`
	ConsumedPerIteration  float64 `json:"consumed_per_iteration"`
	NetOutputPerIteration float64 `json:"net_output_per_iteration"`
	ExpectedCrafts        int     `json:"expected_crafts"`
}

// ExternalInput is a commodity a cycle consumes but does not produce.
type ExternalInput struct {
	ID       string  `json:"commodity"`
	Quantity float64 `json:"quantity"`
	Tree     Node    `json:"tree"`
}

// CycleGroupNode stands for a whole strongly connected component.
type CycleGroupNode struct {
	ID string `json:"commodity"`

	// Representative is the member with the lowest baseline cost. InputRecipe
	// is its acyclic tree and seeds the cycle.
	Representative string  `json:"representative"`
	InputRecipe    Node    `json:"input_recipe"`
	SeedQuantity   float64 `json:"seed_quantity"`

	Cycles    []Cycle         `json:"cycles"`
	Stats     []CycleStats    `json:"stats"`
	Quantity  float64         `json:"quantity"`
	Externals []ExternalInput `json:"externals,omitempty"`
}

func (n *DirectNode) Commodity() string      { return n.ID }
func (n *RecipeNode) Commodity() string      { return n.ID }
func (n *CycleMemberNode) Commodity() string { return n.ID }
func (n *CycleGroupNode) Commodity() string  { return n.ID }

func (n *DirectNode) Kind() NodeKind      { return KindDirect }
func (n *RecipeNode) Kind() NodeKind      { return KindRecipe }
func (n *CycleMemberNode) Kind() NodeKind { return KindCycleMember }
func (n *CycleGroupNode) Kind() NodeKind  { return KindCycleGroup }

func (*DirectNode) node()      {}
func (*RecipeNode) node()      {}
func (*CycleMemberNode) node() {}
func (*CycleGroupNode) node()  {}

// MarshalJSON adds the kind discriminator.
func (n *DirectNode) MarshalJSON() ([]byte, error) {
	type direct DirectNode
	return json.Marshal(struct {
		Kind NodeKind `json:"kind"`
		*direct
	}{KindDirect, (*direct)(n)})
}

// MarshalJSON adds the kind discriminator.
func (n *RecipeNode) MarshalJSON() ([]byte, error) {
	type recipe RecipeNode
	return json.Marshal(struct {
		Kind NodeKind `json:"kind"`
		*recipe
	}{KindRecipe, (*recipe)(n)})
}

// MarshalJSON adds the kind discriminator.
func (n *CycleMemberNode) MarshalJSON() ([]byte, error) {
	type member CycleMemberNode
	return json.Marshal(struct {
		Kind NodeKind `json:"kind"`
		*member
	}{KindCycleMember, (*member)(n)})
}

// MarshalJSON adds the kind discriminator.
func (n *CycleGroupNode) MarshalJSON() ([]byte, error) {
	type group CycleGroupNode
	return json.Marshal(struct {
		Kind NodeKind `json:"kind"`
		*group
	}{KindCycleGroup, (*group)(n)})
}

// Walk visits n and its descendants depth first. Cycle groups descend into
// their input recipe and then each external input tree. Returning false
// from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *DirectNode:
	case *RecipeNode:
		Walk(v.Inputs[0], fn)
		Walk(v.Inputs[1], fn)
	case *CycleMemberNode:
		Walk(v.Inputs[0], fn)
		Walk(v.Inputs[1], fn)
	case *CycleGroupNode:
		Walk(v.InputRecipe, fn)
		for _, ext := range v.Externals {
			Walk(ext.Tree, fn)
		}
	default:
		panic("fusion: unknown node type")
	}
}
