package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Validate unifies the document with a CUE schema and requires the result to
// be concrete. Optional schema fields absent from the document are ignored.
func (c *Config) Validate(schema string) error {
	ctx := cuecontext.New()

	s := ctx.CompileString(schema)
	if err := s.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	doc := ctx.Encode(c.root)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := s.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validate config %s: %w", c.path, err)
	}
	return nil
}
