package model

// Snapshotter is implemented by payloads that can produce an independent copy
// of themselves. Events embed a snapshot taken before the transition mutates
// the live payload, so the recorded document still shows the previous state.
type Snapshotter interface {
	Snapshot() Payload
}

// Snapshot implements Snapshotter with a deep-enough copy: Fields is cloned
// one level down, which is all the engine ever touches.
func (d *Document) Snapshot() Payload {
	cp := *d
	if d.Fields != nil {
		cp.Fields = make(map[string]any, len(d.Fields))
		for k, v := range d.Fields {
			cp.Fields[k] = v
		}
	}
	return &cp
}
