package ports

// InputResolver defines the interface for resolving input files.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type InputResolver interface {
	// ResolveInputs resolves the given input paths, directories and glob patterns
	// to a sorted list of concrete file paths.
	ResolveInputs(inputs []string, root string) ([]string, error)
}
