package ports

import "context"

// SectionObserver records the outcome of each rendered view section.
type SectionObserver interface {
	ObserveSection(ctx context.Context, view, section, status string)
}
