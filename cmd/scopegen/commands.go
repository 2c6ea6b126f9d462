package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/llir/llvm/ir"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/scopegen"
	"github.com/deepnoodle-ai/scopegen/dis"
)

func (a *app) buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [file]",
		Short: "Compile the input to LLVM IR assembly",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			text, err := scopegen.Build(cmd.Context(), source, a.options(filename)...)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("output")
			if out == "" || out == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			a.log.Info().Str("file", out).Msg("writing module")
			return os.WriteFile(out, []byte(text), 0o644)
		},
	}
	addInputFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "write the module to this file instead of stdout")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Report the errors of the input without printing the module",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			m, err := scopegen.Compile(cmd.Context(), source, a.options(filename)...)
			format, _ := cmd.Flags().GetString("format")
			switch strings.ToLower(format) {
			case "json":
				diags := []diagnostic{}
				for _, e := range compileErrors(err) {
					diags = append(diags, newDiagnostic(e))
				}
				if err != nil && len(diags) == 0 {
					return err
				}
				data, jerr := marshalJSON(diags)
				if jerr != nil {
					return jerr
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				if err != nil {
					return &exitError{code: 1}
				}
				return nil
			case "", "text":
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d functions\n", color.GreenString("ok"), len(defined(m)))
				return nil
			default:
				return fmt.Errorf("unknown output format: %s", format)
			}
		},
	}
	addInputFlags(cmd)
	cmd.Flags().String("format", "text", "output format: text or json")
	return cmd
}

func (a *app) disCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis [file]",
		Short: "Print the basic blocks of the generated functions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			m, compileErr := scopegen.Compile(cmd.Context(), source, a.options(filename)...)
			if m == nil {
				return compileErr
			}
			funcs := defined(m)
			if name, _ := cmd.Flags().GetString("func"); name != "" {
				var fn *ir.Func
				for _, f := range m.Funcs {
					if f.Name() == name {
						fn = f
						break
					}
				}
				if fn == nil {
					return fmt.Errorf("function %q not found", name)
				}
				funcs = []*ir.Func{fn}
			}
			out := cmd.OutOrStdout()
			for i, f := range funcs {
				if i > 0 {
					fmt.Fprintln(out)
				}
				if err := dis.Func(f, out); err != nil {
					return err
				}
			}
			return compileErr
		},
	}
	addInputFlags(cmd)
	cmd.Flags().String("func", "", "function to disassemble")
	return cmd
}

func (a *app) astCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ast [file]",
		Short: "Print the statement tree of the input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			file, err := scopegen.Parse(cmd.Context(), source, a.options(filename)...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), file.String())
			return nil
		},
	}
	addInputFlags(cmd)
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if strings.ToLower(format) == "json" {
				data, err := marshalJSON(map[string]string{
					"version": version,
					"commit":  commit,
					"date":    date,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
	cmd.Flags().String("format", "text", "output format: text or json")
	return cmd
}

// defined returns the functions of m that have a body.
func defined(m *ir.Module) []*ir.Func {
	var out []*ir.Func
	for _, f := range m.Funcs {
		if len(f.Blocks) > 0 {
			out = append(out, f)
		}
	}
	return out
}
