package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funvibe/sumshape/internal/traits"
	"github.com/funvibe/sumshape/internal/traits/stdlib"
)

var traitsCmd = &cobra.Command{
	Use:   "traits [dir]",
	Short: "List the trait blueprints dispatch bounds can name",
	Long: `Lists the standard blueprints plus the traits of the project found from
dir, if any.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTraits,
}

func runTraits(cmd *cobra.Command, args []string) error {
	reg := stdlib.Registry()
	if _, err := projectPath(args); err == nil {
		p, err := openProject(cmd, args)
		if err != nil {
			return err
		}
		defer p.Close()
		reg = p.Registry
	}

	w := cmd.OutOrStdout()
	for _, bp := range reg.All() {
		fmt.Fprintln(w, traitHeader(bp))
		for _, a := range bp.AssocTypes {
			fmt.Fprintf(w, "    type %s;\n", a)
		}
		for _, m := range bp.Methods {
			fmt.Fprintf(w, "    %s;\n", m.Signature())
		}
	}
	return nil
}

func traitHeader(bp *traits.Blueprint) string {
	if len(bp.Params) == 0 {
		return bp.QualifiedName()
	}
	params := make([]string, len(bp.Params))
	for i, p := range bp.Params {
		params[i] = p.String()
	}
	return bp.QualifiedName() + "<" + strings.Join(params, ", ") + ">"
}
