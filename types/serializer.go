package types

// Serializer is implemented by the values that have a canonical flat
// representation, such as the public signals of a proof.
type Serializer[T any] interface {
	Serialize() []T
}
