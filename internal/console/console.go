package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/plate-calculator/internal/calculator"
)

var (
	heavyRule = strings.Repeat("=", 50)
	lightRule = strings.Repeat("-", 25)
)

// Console drives the interactive plate calculator over a line based stream.
type Console struct {
	in     io.Reader
	out    io.Writer
	calc   calculator.Calculator
	mode   calculator.Mode
	logger *zap.Logger

	lines chan string
	done  chan struct{}
}

// Option configures a Console.
type Option func(*Console)

// WithMode selects how weights are decomposed. The default is ModeTotal.
func WithMode(mode calculator.Mode) Option {
	return func(c *Console) {
		c.mode = mode
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Console reading answers from in and writing prompts to out.
func New(in io.Reader, out io.Writer, calc calculator.Calculator, opts ...Option) *Console {
	c := &Console{
		in:     in,
		out:    out,
		calc:   calc,
		mode:   calculator.ModeTotal,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run prompts for weights until the user declines to continue, input ends or
// ctx is cancelled. Ending input early is not an error.
func (c *Console) Run(ctx context.Context) error {
	c.lines = make(chan string)
	c.done = make(chan struct{})
	defer close(c.done)
	go c.readLines()

	c.printBanner()

	for {
		weight, ok := c.promptWeight(ctx)
		if !ok {
			c.println("Goodbye!")
			return nil
		}

		result, err := c.calc.Calculate(weight, c.mode)
		if err != nil {
			if errors.Is(err, calculator.ErrInvalidWeight) {
				c.printf("Error: %v\n", err)
				continue
			}
			return fmt.Errorf("calculate plates: %w", err)
		}
		c.logger.Debug("plates calculated",
			zap.String("mode", string(c.mode)),
			zap.Float64("target", result.TargetWeight),
			zap.Float64("achieved", result.AchievedWeight),
		)
		c.printResult(result)

		c.println("\n" + heavyRule)
		again, ok := c.promptYesNo(ctx, "Would you like to calculate another weight?")
		switch {
		case !ok:
			c.println("Goodbye!")
			return nil
		case again:
			c.println("\n" + heavyRule)
		default:
			c.println("\nThank you for using the Gym Plate Calculator!")
			c.println("Stay strong! 💪")
			return nil
		}
	}
}

func (c *Console) readLines() {
	defer close(c.lines)

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case c.lines <- scanner.Text():
		case <-c.done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("reading input failed", zap.Error(err))
	}
}

// readLine returns false once input is exhausted or ctx is cancelled. Only
// cancellation is reported to the user.
func (c *Console) readLine(ctx context.Context) (string, bool) {
	line, ok := "", false
	if ctx.Err() == nil {
		select {
		case <-ctx.Done():
		case line, ok = <-c.lines:
		}
	}
	if !ok && ctx.Err() != nil {
		c.println("\nOperation cancelled by user.")
	}
	return line, ok
}

func (c *Console) promptWeight(ctx context.Context) (float64, bool) {
	for {
		c.printf("Please enter the desired weight for the exercise: ")
		line, ok := c.readLine(ctx)
		if !ok {
			return 0, false
		}

		weight, err := calculator.ParseWeight(line)
		if err != nil {
			var inputErr *calculator.InputError
			if errors.As(err, &inputErr) {
				c.printf("Error: %s. Please try again.\n", inputErr.Reason)
			} else {
				c.printf("Error: %v. Please try again.\n", err)
			}
			continue
		}
		return weight, true
	}
}

func (c *Console) promptYesNo(ctx context.Context, prompt string) (bool, bool) {
	for {
		c.printf("%s (y/n): ", prompt)
		line, ok := c.readLine(ctx)
		if !ok {
			return false, false
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, true
		case "n", "no":
			return false, true
		default:
			c.println("Please enter 'y' for yes or 'n' for no.")
		}
	}
}

func (c *Console) printBanner() {
	plates := calculator.Plates()
	names := make([]string, len(plates))
	for i, p := range plates {
		names[i] = formatWeight(p)
	}

	c.println("Welcome to the Gym Plate Calculator!")
	c.println("This tool helps you find the minimum plates needed for your target weight.")
	c.printf("Available plates: %s, and %s lbs\n", strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
	if bar := c.mode.BarWeight(); bar > 0 {
		c.printf("Bar weight: %s lbs (plates are listed per side)\n", formatWeight(bar))
	}
	c.println("")
}

func (c *Console) printResult(r calculator.Result) {
	c.println("\n" + heavyRule)
	c.println("PLATE CALCULATION RESULTS")
	c.println(heavyRule)

	c.printf("Target Weight: %s lbs\n", formatWeight(r.TargetWeight))
	c.printf("Actual Weight: %s lbs\n", formatWeight(r.AchievedWeight))
	if r.ExactMatch {
		c.println("✓ Exact match achieved!")
	} else {
		c.printf("✗ Difference: %+.1f lbs\n", r.Difference())
	}

	perSide := ""
	if r.BarWeight > 0 {
		perSide = " (per side)"
		c.printf("Bar Weight: %s lbs\n", formatWeight(r.BarWeight))
	}
	c.printf("\nTotal Plates Needed%s: %d\n", perSide, r.TotalPlates)
	c.printf("\nPlate Breakdown%s:\n", perSide)
	c.println(lightRule)
	for _, p := range r.Plates {
		if p.Count == 0 {
			continue
		}
		c.printf("%4.1f lb plates: %2d × %4.1f = %5.1f lbs\n", p.Weight, p.Count, p.Weight, p.Weight*float64(p.Count))
	}
	c.println(lightRule)
	c.printf("Total Weight: %s lbs\n", formatWeight(r.AchievedWeight))
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func (c *Console) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
