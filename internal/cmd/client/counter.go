package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	transports "github.com/BaraaAbuhalima/counter-app/internal/cmd/client/transports"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

func getTransport(cmd *cobra.Command, baseURL BaseURLFunc) (transports.CounterTransport, error) {
	kind, _ := cmd.Flags().GetString("transport")
	switch kind {
	case "", "http":
		return transports.NewHTTPTransport(baseURL(), nil), nil
	case "grpc":
		return transports.NewGrpcTransport(dialGRPCContext), nil
	default:
		return nil, fmt.Errorf("unknown transport %q; use http|grpc", kind)
	}
}

// NewCounterCommands constructs the get, add and watch commands.
func NewCounterCommands(baseURL BaseURLFunc) []*cobra.Command {
	if baseURL == nil {
		baseURL = HTTPBaseFromEnv
	}
	return []*cobra.Command{
		newGetCommand(baseURL),
		newAddCommand(baseURL),
		newWatchCommand(baseURL),
	}
}

// newGetCommand constructs the `get` command.
func newGetCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print every counter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := getTransport(cmd, baseURL)
			if err != nil {
				return err
			}
			c, err := t.Get(cmd.Context())
			if err != nil {
				return err
			}
			return printCounters(cmd, c)
		},
	}
	cmd.Flags().String("transport", "http", "Transport: http|grpc")
	return cmd
}

// newAddCommand constructs the `add` command.
func newAddCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a signed delta to a counter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			delta, _ := cmd.Flags().GetInt64("delta")
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			t, err := getTransport(cmd, baseURL)
			if err != nil {
				return err
			}
			c, err := t.Apply(cmd.Context(), key, delta)
			if err != nil {
				return err
			}
			return printCounters(cmd, c)
		},
	}
	cmd.Flags().String("transport", "http", "Transport: http|grpc")
	cmd.Flags().String("key", "", "Counter name: video|photo")
	cmd.Flags().Int64("delta", 1, "Signed amount to add")
	return cmd
}

// newWatchCommand constructs the `watch` command. Output is one JSON event
// per line.
func newWatchCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream counter changes (HTTP only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")
			enc := json.NewEncoder(cmd.OutOrStdout())
			seen := 0
			err := transports.NewHTTPTransport(baseURL(), nil).Watch(cmd.Context(), filter, func(e transports.Event) error {
				if err := enc.Encode(e); err != nil {
					return err
				}
				seen++
				if limit > 0 && seen >= limit {
					return errStopWatch
				}
				return nil
			})
			if errors.Is(err, errStopWatch) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().String("filter", "", "CEL filter over key, delta, counters, persisted, revision")
	cmd.Flags().Int("limit", 0, "Stop after N events (0 = infinite)")
	return cmd
}

var errStopWatch = errors.New("watch limit reached")

// printCounters writes `name: value` lines sorted by name, then a note when
// the server answered from memory.
func printCounters(cmd *cobra.Command, c transports.Counters) error {
	names := make([]string, 0, len(c.Values))
	for k := range c.Values {
		names = append(names, k)
	}
	sort.Strings(names)
	out := cmd.OutOrStdout()
	for _, k := range names {
		if _, err := fmt.Fprintf(out, "%s: %d\n", k, c.Values[k]); err != nil {
			return err
		}
	}
	if !c.Persisted {
		_, err := fmt.Fprintln(out, "warning: not persisted (server is using in-memory fallback)")
		return err
	}
	return nil
}
