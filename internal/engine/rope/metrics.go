package rope

// Stats is a point-in-time description of a Rope node.
type Stats struct {
	// Len is the byte length of the content.
	Len int

	// Nodes is the number of lazy Rope nodes in the tree rooted here,
	// including this one. Zero once materialized.
	Nodes int

	// RightSpine is the longest right-edge path used to size the flatten
	// stack. Zero once materialized.
	RightSpine int

	// Materialized reports whether the flat value has been published.
	Materialized bool
}

// FlattenEvent describes one completed flatten.
type FlattenEvent struct {
	// Len is the number of bytes copied.
	Len int

	// Nodes is the lazy node count of the tree before it was flattened.
	Nodes int

	// Leaves is the number of leaf copies performed.
	Leaves int

	// Eager is true when construction crossed the node ceiling.
	Eager bool
}

// Observer receives construction and flatten notifications.
// Implementations must be safe for concurrent use. They are called on the
// goroutine doing the work after the node's lock is released; a flatten
// only reaches already-materialized children, which fire no events.
type Observer interface {
	// Constructed is called for every new node with its stats as returned,
	// after any eager flatten.
	Constructed(s Stats)

	// Flattened is called once per node when its content is materialized.
	Flattened(ev FlattenEvent)

	// Failed is called when a construction or flatten returns an error.
	Failed(err error)
}

// nopObserver discards all notifications.
type nopObserver struct{}

func (nopObserver) Constructed(Stats)      {}
func (nopObserver) Flattened(FlattenEvent) {}
func (nopObserver) Failed(error)           {}
