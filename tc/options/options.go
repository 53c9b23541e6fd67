// Package options encodes the kind-specific TCA_OPTIONS payloads for the
// qdisc kinds named in spec.md §4.5: htb, fq_codel, tbf, sfq, prio.
package options

// Qdisc is implemented by every qdisc option type in this package, and by
// tc.QdiscOptions (a type alias of this interface).
type Qdisc interface {
	Kind() string
	Encode() []byte
}

// Class is implemented by class-level option types (currently HTB class
// parameters; other qdiscs' classes are addressed without extra options).
type Class interface {
	Kind() string
	Encode() []byte
}
