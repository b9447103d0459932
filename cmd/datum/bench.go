package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/datum-dev/datum"
	"github.com/datum-dev/datum/internal/errors"
)

// benchProfile bundles the grid dimensions for one benchmark run.
type benchProfile struct {
	Widths     []int
	Depths     []int
	Iterations int
}

var benchProfiles = map[string]benchProfile{
	"fast":     {Widths: []int{1, 10}, Depths: []int{1, 10}, Iterations: 50},
	"standard": {Widths: []int{1, 10, 100}, Depths: []int{1, 10, 100}, Iterations: 100},
	"stress":   {Widths: []int{1, 10, 100, 1000}, Depths: []int{1, 10, 100}, Iterations: 200},
}

func benchCmd() *cobra.Command {
	var (
		profileName string
		widths      string
		depths      string
		iterations  int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark change propagation",
		Long: `Benchmark change propagation through containers.

For each width W and depth H in the grid, the propagation benchmark
builds W chains of H derived containers off a single source,
subscribes to every chain tail, then times how long a source write
takes to reach all of them. The fan-out benchmark times a write
against flat pools of direct subscribers.

Notification is synchronous, so each sample is the full cost of a
write: the equality check, every derived recompute, and every
subscriber callback.

Examples:
  datum bench
  datum bench --profile=stress
  datum bench --widths=1,50 --depths=10 --iterations=500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(profileName, widths, depths, iterations)
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "standard", "Profile: fast, standard, or stress")
	cmd.Flags().StringVar(&widths, "widths", "", "Comma-separated chain counts (overrides profile)")
	cmd.Flags().StringVar(&depths, "depths", "", "Comma-separated chain depths (overrides profile)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Timed writes per grid (overrides profile)")

	return cmd
}

func runBench(profileName, widths, depths string, iterations int) error {
	prof, ok := benchProfiles[profileName]
	if !ok {
		names := make([]string, 0, len(benchProfiles))
		for name := range benchProfiles {
			names = append(names, name)
		}
		sort.Strings(names)
		return errors.New("E081").
			WithDetail(fmt.Sprintf("Unknown profile %q", profileName)).
			WithSuggestion("Valid profiles: " + strings.Join(names, ", "))
	}

	// Apply command-line overrides
	if widths != "" {
		ws, err := parseGrid("widths", widths)
		if err != nil {
			return err
		}
		prof.Widths = ws
	}
	if depths != "" {
		ds, err := parseGrid("depths", depths)
		if err != nil {
			return err
		}
		prof.Depths = ds
	}
	if iterations < 0 {
		return errors.New("E081").
			WithDetail(fmt.Sprintf("Iteration count %d is not positive", iterations))
	}
	if iterations > 0 {
		prof.Iterations = iterations
	}

	printBanner()
	fmt.Println("  bench")
	fmt.Println()
	info("Profile: %s (%d grids, %s timed writes each)",
		profileName, len(prof.Widths)*len(prof.Depths), humanize.Comma(int64(prof.Iterations)))
	fmt.Println()

	start := time.Now()
	benchmarkPropagate(prof)
	fmt.Println()
	benchmarkFanOut(prof)
	fmt.Println()
	success("Done in %s", time.Since(start).Round(time.Millisecond))

	return nil
}

func parseGrid(name, s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return nil, errors.New("E081").
				WithDetail(fmt.Sprintf("--%s entry %q is not a positive integer", name, p)).
				WithExample("datum bench --" + name + "=1,10,100")
		}
		out = append(out, n)
	}
	return out, nil
}

// benchmarkPropagate times source writes through W chains of H derived
// containers each, with a subscriber on every chain tail.
func benchmarkPropagate(prof benchProfile) {
	tbl := table.NewWriter()
	tbl.SetTitle("Propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"grid", "notifies", "avg", "min", "p75", "p99", "max"})

	for _, w := range prof.Widths {
		for _, h := range prof.Depths {
			src := datum.New(0)
			var notifies int64
			cancels := make([]func(), 0, w*(h+1))

			for i := 0; i < w; i++ {
				last := src
				for j := 0; j < h; j++ {
					next, cancel := datum.Computed(last, func(v int) int { return v + 1 })
					cancels = append(cancels, cancel)
					last = next
				}
				cancels = append(cancels, last.Subscribe(func() { notifies++ }))
			}

			src.Set(src.Get() + 1) // warm up
			notifies = 0

			tach := tachymeter.New(&tachymeter.Config{Size: prof.Iterations})
			for i := 0; i < prof.Iterations; i++ {
				start := time.Now()
				src.Set(src.Get() + 1)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{{
				fmt.Sprintf("%d x %d", w, h),
				humanize.Comma(notifies),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			}})

			for _, cancel := range cancels {
				cancel()
			}
		}
	}

	tbl.Render()
}

// benchmarkFanOut times source writes against flat pools of direct
// subscribers, one pool per distinct W*H product of the grid.
func benchmarkFanOut(prof benchProfile) {
	seen := map[int]struct{}{}
	var counts []int
	for _, w := range prof.Widths {
		for _, h := range prof.Depths {
			if _, ok := seen[w*h]; ok {
				continue
			}
			seen[w*h] = struct{}{}
			counts = append(counts, w*h)
		}
	}
	sort.Ints(counts)

	tbl := table.NewWriter()
	tbl.SetTitle("Fan-out")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"subscribers", "notifies", "avg", "min", "p75", "p99", "max"})

	for _, n := range counts {
		src := datum.New(0)
		var notifies int64
		cancels := make([]func(), 0, n)
		for i := 0; i < n; i++ {
			cancels = append(cancels, src.Subscribe(func() { notifies++ }))
		}

		src.Set(src.Get() + 1) // warm up
		notifies = 0

		tach := tachymeter.New(&tachymeter.Config{Size: prof.Iterations})
		for i := 0; i < prof.Iterations; i++ {
			start := time.Now()
			src.Set(src.Get() + 1)
			tach.AddTime(time.Since(start))
		}

		calc := tach.Calc()
		tbl.AppendRows([]table.Row{{
			humanize.Comma(int64(n)),
			humanize.Comma(notifies),
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		}})

		for _, cancel := range cancels {
			cancel()
		}
	}

	tbl.Render()
}
