package host

// Actor is a node in the host's scene graph.
type Actor struct {
	Name string

	parent   *Actor
	children []*Actor
}

// NewActor returns a detached actor.
func NewActor(name string) *Actor {
	return &Actor{Name: name}
}

// Parent returns the actor's parent, or nil when detached.
func (a *Actor) Parent() *Actor {
	return a.parent
}

// Children returns the actor's children in insertion order.
func (a *Actor) Children() []*Actor {
	return append([]*Actor(nil), a.children...)
}

func (a *Actor) add(child *Actor) {
	if child == nil || child == a {
		return
	}
	if child.parent != nil {
		child.parent.remove(child)
	}
	child.parent = a
	a.children = append(a.children, child)
}

func (a *Actor) remove(child *Actor) {
	for i, c := range a.children {
		if c == child {
			a.children = append(a.children[:i], a.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}
