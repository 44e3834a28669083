package subject

import "fmt"

// DeriveSpec requests an expression derivation, e.g. {Trait: "Into", Target: "u8"}.
type DeriveSpec struct {
	Trait  string
	Target string
}

// Definition is a sum type as discovered by a front-end: the enum, the
// pattern it must satisfy and where it was declared.
type Definition struct {
	Enum    *Enum
	Pattern string
	Derives []DeriveSpec

	// Origin is "config", "go", "proto" or "rust".
	Origin string
	File   string
	Line   int

	// Emit prints the enum declaration itself along with its impls. Set for
	// enums declared in the project file; front-end enums already exist.
	Emit bool
	// PointerVariants names Go variants whose methods need a pointer receiver.
	PointerVariants map[string]bool
}

// Position formats File:Line, or the enum name when the origin has no file.
func (d *Definition) Position() string {
	if d.File == "" {
		return d.Enum.Name
	}
	if d.Line == 0 {
		return d.File
	}
	return fmt.Sprintf("%s:%d", d.File, d.Line)
}
