package config

// ConfigFileNames are the project file names looked up by FindConfig, in order.
var ConfigFileNames = []string{"sumshape.yaml", "sumshape.yml"}

// DirectivePrefix marks a Go interface as a sum type carrying a shape pattern.
const DirectivePrefix = "//sumshape:"

// Rust attribute names that carry a shape pattern on an enum.
var RustAttributeNames = []string{"penum", "shape"}

// DefaultVariantName is the pseudo variant whose expression is used as the
// fallback arm of a derived impl.
const DefaultVariantName = "__Default__"

// SelfTypeName refers to the implementing type inside a trait blueprint.
const SelfTypeName = "Self"

// Output dialects
const (
	DialectRust = "rust"
	DialectGo   = "go"
)

// Well-known capabilities
const (
	DefaultTraitName = "Default"
	DefaultCallExpr  = "Default::default()"
)
