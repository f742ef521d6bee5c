package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the counter client.
// It registers the get, add and watch commands.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "counter",
		Short: "Counter client commands",
	}
	root.AddCommand(NewCounterCommands(baseURL)...)
	return root
}
