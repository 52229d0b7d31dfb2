package opruntime

// Extension is a global cross-cutting hook a Client can install to
// observe or wrap every Store's runs, independent of the per-Operation
// Modifier chain. Where a Modifier is declared once per Operation,
// an Extension applies uniformly across every Operation a Client
// manages, the same split the teacher draws between per-Executor
// middleware and scope-wide Extension (extension.go): BaseExtension
// gives every method a no-op default so implementations only override
// what they need.
type Extension interface {
	// OnRunStart is called before a Store's run function executes.
	OnRunStart(path Path)
	// OnRunEnd is called after a run completes, successfully or not.
	OnRunEnd(path Path, err error)
	// OnPanic is called when a run function panics, before it is
	// converted into a RunError.
	OnPanic(path Path, recovered any)
}

// BaseExtension implements Extension with no-op methods, so callers can
// embed it and override only the hooks they care about.
type BaseExtension struct{}

func (BaseExtension) OnRunStart(Path)          {}
func (BaseExtension) OnRunEnd(Path, error)     {}
func (BaseExtension) OnPanic(Path, any)         {}

// extensionList lets a Client fan a single notification out to every
// installed Extension without each Store needing to hold the full list
// itself; Store reads it from Context via ExtensionsKey.
type extensionList struct {
	items []Extension
}

func (l extensionList) runStart(path Path) {
	for _, e := range l.items {
		e.OnRunStart(path)
	}
}

func (l extensionList) runEnd(path Path, err error) {
	for _, e := range l.items {
		e.OnRunEnd(path, err)
	}
}

// ExtensionsKey binds the Client's installed Extensions so Store.Run can
// notify them without importing Client directly (avoiding an import
// cycle between store.go and client.go beyond the existing Context
// plumbing).
var ExtensionsKey = NewKey[extensionList]("extensions", extensionList{})

// WithExtensions installs Extensions on a Client. Single-value Stores it
// creates notify them on run start/end from Store.Run; PaginatedStore and
// MutationStore do not call OnRunStart/OnRunEnd, though a panic in any
// Store's operation still reaches OnPanic.
func WithExtensions(exts ...Extension) ClientOption {
	return func(c *Client) {
		c.base = With(c.base, ExtensionsKey, extensionList{items: exts})
	}
}
