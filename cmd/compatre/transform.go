package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bft-labs/compatre/internal/cliconfig"
)

func (c *cli) transformCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "transform <module>",
		Short: "Run one compiled module through the load hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cliconfig.LoadHostInfo(&c.cfg); err != nil {
				return err
			}
			inst, err := c.newCompatre()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(filepath.Base(args[0]), c.cfg.Suffix)
			out, err := inst.TransformFunc()(name, data)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err = c.out.Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			c.logger.Info().
				Str("module", name).
				Bool("rewritten", !bytes.Equal(out, data)).
				Str("output", output).
				Msg("module transformed")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write the result to (- for stdout)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
