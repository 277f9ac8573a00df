package compile

// State is a stage of a compilation.
type State int

const (
	ValidatingSettings State = iota
	GeneratingNamespaces
	Precompiling
	GeneratingPerNodeCode
	ResolvingDependencies
	Rendering
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case ValidatingSettings:
		return "ValidatingSettings"
	case GeneratingNamespaces:
		return "GeneratingNamespaces"
	case Precompiling:
		return "Precompiling"
	case GeneratingPerNodeCode:
		return "GeneratingPerNodeCode"
	case ResolvingDependencies:
		return "ResolvingDependencies"
	case Rendering:
		return "Rendering"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no transition leaves the state.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
