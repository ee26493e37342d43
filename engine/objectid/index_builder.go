package objectid

// IndexBuilderOption is a functional option for configuring an Index.
type IndexBuilderOption func(*index)

// WithFirstID sets the first identifier handed out by Insert.
// Useful for keeping identifiers from separate indices disjoint.
//
// Parameters:
//   - id: the first identifier; Empty is replaced by 1
//
// Returns:
//   - IndexBuilderOption: a function that applies the option
func WithFirstID(id ObjectID) IndexBuilderOption {
	return func(i *index) {
		i.next = id
	}
}
