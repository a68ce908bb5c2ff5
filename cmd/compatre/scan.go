package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bft-labs/compatre/internal/adapters/ziparchive"
	"github.com/bft-labs/compatre/internal/domain"
)

func (c *cli) scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <archive>",
		Short: "List the marked modules of a plugin archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := c.newCompatre()
			if err != nil {
				return err
			}
			a, err := ziparchive.Open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			var scanned, marked, failed int
			for _, entry := range a.Entries() {
				if !strings.HasSuffix(entry, c.cfg.Suffix) {
					continue
				}
				scanned++
				data, err := a.ReadEntry(entry)
				if err == nil {
					var ok bool
					ok, err = inst.HasMarker(data)
					if ok {
						marked++
						fmt.Fprintln(c.out, domain.BinaryName(entry, c.cfg.Suffix))
					}
				}
				if err != nil {
					failed++
					c.logger.Warn().Err(err).Str("entry", entry).Msg("entry could not be scanned")
				}
			}

			c.logger.Info().
				Str("archive", args[0]).
				Int("scanned", scanned).
				Int("marked", marked).
				Int("failed", failed).
				Msg("scan complete")
			if failed > 0 {
				return fmt.Errorf("%d of %d entries could not be scanned", failed, scanned)
			}
			return nil
		},
	}
}
