package workflow

type PropagationTrace struct {
	Entry             string      `json:"entry"`
	Layers            [][]string  `json:"layers"`
	Steps             []NodeTrace `json:"steps"`
	AcceptedFragments int         `json:"accepted_fragments"`
	RejectedFragments int         `json:"rejected_fragments"`
}

// NodeTrace describes one workflow's routing. Volumes are decimal strings
// because they overflow JSON numbers.
type NodeTrace struct {
	NodeID         string        `json:"node_id"`
	Layer          int           `json:"layer"`
	DurationMicros int64         `json:"duration_micros"`
	InputFragments int           `json:"input_fragments"`
	InputVolume    string        `json:"input_volume"`
	Outputs        []OutputTrace `json:"outputs,omitempty"`
}

type OutputTrace struct {
	To        string `json:"to"`
	Fragments int    `json:"fragments"`
	Volume    string `json:"volume"`
}
