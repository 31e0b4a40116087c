package visualizer

// Options configures the visualization output.
type Options struct {
	// ShowGuards appends guard keys to transition labels
	ShowGuards bool

	// ShowCallbacks lists enter/leave events in state nodes
	ShowCallbacks bool

	// Direction controls diagram flow: "TD" (top-down) or "LR" (left-right)
	Direction string

	// HighlightCurrent styles the snapshot's current state
	HighlightCurrent bool

	// HighlightPath highlights a specific state path through the diagram
	HighlightPath []string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowGuards:       true,
		ShowCallbacks:    true,
		Direction:        "TD",
		HighlightCurrent: true,
	}
}

// WithShowGuards enables/disables guard keys on transitions.
func (o Options) WithShowGuards(show bool) Options {
	o.ShowGuards = show

	return o
}

// WithShowCallbacks enables/disables event details.
func (o Options) WithShowCallbacks(show bool) Options {
	o.ShowCallbacks = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightCurrent enables/disables styling of the current state.
func (o Options) WithHighlightCurrent(highlight bool) Options {
	o.HighlightCurrent = highlight

	return o
}

// WithHighlightPath sets states to highlight.
func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}
