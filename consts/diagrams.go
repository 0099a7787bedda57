package consts

// Text constellation diagrams, one per variant. They do not depend on the inputs.
const (
	BPSKDiagram = "*                *"
	QPSKDiagram = "    *\n*       *\n    *"
	FSKDiagram  = "FSK constellation diagram\n(not defined)"
)
