package cli

import (
	"fmt"

	"github.com/cameroncuttingedge/place/discovery"
	"github.com/spf13/cobra"
)

func NewDiscoverCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List canvases advertised on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			return discovery.Browse(func(addr string) {
				fmt.Fprintln(cmd.OutOrStdout(), addr)
			})
		},
	}
}
