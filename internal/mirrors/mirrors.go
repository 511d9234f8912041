// Package mirrors holds the ordered list of aggregator endpoints the
// resolvers fall back across. The order encodes operator-assigned
// reliability priority; callers must walk it front to back.
package mirrors

// Registry is immutable after construction. It is the only
// process-wide state in the whole core.
type Registry struct {
	bases []string
}

func New(bases []string) *Registry {
	copied := make([]string, len(bases))
	copy(copied, bases)
	return &Registry{bases: copied}
}

// Captions returns the mirror bases that serve subtitle listings.
// All known aggregators expose captions and audio through the same
// per-video streams response, so the lists are currently identical.
func (r *Registry) Captions() []string {
	return r.bases
}

// Audio returns the mirror bases that serve audio stream listings.
func (r *Registry) Audio() []string {
	return r.bases
}

func (r *Registry) Len() int {
	return len(r.bases)
}
