package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"slices"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/routekit/rangeroute/logging"
	"github.com/routekit/rangeroute/lpm"
	"github.com/routekit/rangeroute/xcmd"
)

var cmd Cmd

// Cmd is the command line arguments.
type Cmd struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string
	// Match is a glob pattern filtering dumped prefixes.
	Match string
}

var rootCmd = &cobra.Command{
	Use:          "rangeroute",
	Short:        "Longest-prefix-match lookup over configured IPv4 ranges",
	SilenceUsage: true,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup ADDR...",
	Short: "Resolve addresses against the configured routing table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		table, err := buildTable(cmd)
		if err != nil {
			return err
		}

		for _, arg := range args {
			addr, err := netip.ParseAddr(arg)
			if err != nil {
				return fmt.Errorf("failed to parse address %q: %w", arg, err)
			}
			printLookup(table, addr)
		}
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the routing table, most specific prefixes last",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		var matcher glob.Glob
		if cmd.Match != "" {
			var err error
			if matcher, err = glob.Compile(cmd.Match); err != nil {
				return fmt.Errorf("failed to compile match pattern %q: %w", cmd.Match, err)
			}
		}

		table, err := buildTable(cmd)
		if err != nil {
			return err
		}

		dump := table.Dump()
		prefixes := make([]netip.Prefix, 0, len(dump))
		for prefix := range dump {
			prefixes = append(prefixes, prefix)
		}
		slices.SortFunc(prefixes, func(a, b netip.Prefix) int {
			if c := a.Bits() - b.Bits(); c != 0 {
				return c
			}
			return a.Addr().Compare(b.Addr())
		})

		for _, prefix := range prefixes {
			if matcher != nil && !matcher.Match(prefix.String()) {
				continue
			}
			fmt.Printf("%s via %s\n", prefix, dump[prefix])
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer lookups for addresses read line by line from stdin",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		err := serve(cmd)

		var interrupted xcmd.Interrupted
		if errors.As(err, &interrupted) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to the configuration file (required)")
	rootCmd.MarkPersistentFlagRequired("config")

	dumpCmd.Flags().StringVarP(&cmd.Match, "match", "m", "", "Glob pattern selecting prefixes to print")

	rootCmd.AddCommand(lookupCmd, dumpCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildTable loads the configuration and fills a fresh table with the
// configured routes.
func buildTable(cmd Cmd) (*lpm.Table, error) {
	cfg, err := LoadConfig(cmd.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.Init(&cfg.Logging)
	if err != nil {
		return nil, err
	}

	table := lpm.New(lpm.WithLog(log))
	if err := table.LoadRoutes(cfg.Routes); err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	log.Debugf("loaded %d prefixes from %d route entries", table.Len(), len(cfg.Routes))
	return table, nil
}

func printLookup(table *lpm.Table, addr netip.Addr) {
	if nexthop, ok := table.Lookup(addr); ok {
		fmt.Printf("%s via %s\n", addr, nexthop)
	} else {
		fmt.Printf("%s unreachable\n", addr)
	}
}

func serve(cmd Cmd) error {
	table, err := buildTable(cmd)
	if err != nil {
		return err
	}

	// The reader stays blocked on stdin if a signal ends the run; it dies
	// with the process.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					cancel()
					return nil
				}
				if addr, err := netip.ParseAddr(line); err != nil {
					fmt.Printf("%s invalid\n", line)
				} else {
					printLookup(table, addr)
				}
			case <-ctx.Done():
				return nil
			}
		}
	})
	wg.Go(func() error {
		err := xcmd.WaitInterrupted(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return wg.Wait()
}
