package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coursepath/planner/internal/application/command"
	"github.com/coursepath/planner/internal/domain/plan"
)

var (
	assembleGrade     int
	assembleTrack     string
	assemblePrevious  string
	assembleInterests string
	assemblePick      bool

	batchConcurrency int
)

// assembleCmd builds one plan interactively.
var assembleCmd = &cobra.Command{
	Use:   "assemble <username>",
	Short: "Assemble a four-year plan for one student",
	Long: `Assemble builds and stores a four-year plan for one student.

When slots remain after the template, interest and requirement passes, the
planner asks for more interests on stdin. Answer 'pick' to fill the rest at
random, or pass --pick to skip the question.`,
	Example: `  planner assemble jdoe --grade 9 --track University
  planner assemble jdoe --grade 10 --track College \
      --previous "AVI1O - Visual Arts, ICS2O - Computer Studies" --interests "robotics"`,
	Args: cobra.ExactArgs(1),
	RunE: runAssemble,
}

// batchCmd assembles plans for every profile in a YAML file.
var batchCmd = &cobra.Command{
	Use:   "batch <profiles.yaml>",
	Short: "Assemble plans for many students concurrently",
	Long: `Batch reads student profiles from a YAML file, either a bare list or
{profiles: [...]}, and assembles them concurrently. Open slots are filled at
random; nobody is prompted. One failed profile does not stop the others.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	assembleCmd.Flags().IntVarP(&assembleGrade, "grade", "g", 9, "Current grade (9-12)")
	assembleCmd.Flags().StringVarP(&assembleTrack, "track", "t", "", "Track: University, College or Workplace (required)")
	assembleCmd.Flags().StringVarP(&assemblePrevious, "previous", "p", "", `Previous courses, e.g. "AVI1O - Visual Arts, ICS2O - Computer Studies"`)
	assembleCmd.Flags().StringVarP(&assembleInterests, "interests", "i", "", "Free-text interests")
	assembleCmd.Flags().BoolVar(&assemblePick, "pick", false, "Fill open slots at random without prompting")
	_ = assembleCmd.MarkFlagRequired("track")

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "Concurrent assemblies (default: app.max_concurrent_assemblies)")
}

func runAssemble(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	var prompter plan.Prompter = newStdinPrompter(os.Stdin, cmd.ErrOrStderr())
	if assemblePick {
		prompter = plan.StaticAnswer("pick")
	}

	res, err := a.assembleHandler().Handle(ctx, command.AssemblePlanCommand{
		Username:        args[0],
		Grade:           assembleGrade,
		Track:           assembleTrack,
		PreviousCourses: assemblePrevious,
		Interests:       assembleInterests,
		Prompter:        prompter,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printGrid(out, res.Grid)
	printReport(out, res.Report)
	if res.PersistError != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: plan was not saved: %v\n", res.PersistError)
	}
	return nil
}

// batchProfile is one entry of a batch file.
type batchProfile struct {
	Username        string `yaml:"username"`
	Grade           int    `yaml:"grade"`
	Track           string `yaml:"track"`
	PreviousCourses string `yaml:"previous_courses"`
	Interests       string `yaml:"interests"`
}

// readProfiles accepts either a bare YAML list or {profiles: [...]}.
func readProfiles(r io.Reader) ([]batchProfile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, errors.New("profiles file is empty")
	}

	var profiles []batchProfile
	switch root := node.Content[0]; root.Kind {
	case yaml.SequenceNode:
		err = root.Decode(&profiles)
	case yaml.MappingNode:
		var wrapped struct {
			Profiles []batchProfile `yaml:"profiles"`
		}
		err = root.Decode(&wrapped)
		profiles = wrapped.Profiles
	default:
		return nil, errors.New("profiles file must be a list or {profiles: [...]}")
	}
	if err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return profiles, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	profiles, err := readProfiles(f)
	f.Close()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	cmds := make([]command.AssemblePlanCommand, len(profiles))
	for i, p := range profiles {
		cmds[i] = command.AssemblePlanCommand{
			Username:        p.Username,
			Grade:           p.Grade,
			Track:           p.Track,
			PreviousCourses: p.PreviousCourses,
			Interests:       p.Interests,
		}
	}

	limit := batchConcurrency
	if limit <= 0 {
		limit = cfg.App.MaxConcurrentAssemblies
	}

	items, err := a.assembleHandler().HandleBatch(ctx, cmds, limit)
	out := cmd.OutOrStdout()
	failed := 0
	for _, item := range items {
		switch {
		case item.Err != nil:
			failed++
			fmt.Fprintf(out, "%-20s FAILED  %v\n", item.Username, item.Err)
		case item.Result.PersistError != nil:
			failed++
			fmt.Fprintf(out, "%-20s UNSAVED %v\n", item.Username, item.Result.PersistError)
		default:
			r := item.Result.Report
			fmt.Fprintf(out, "%-20s OK      interest=%d random=%d unfillable=%d unmet=%s\n",
				item.Username, r.InterestMatches, r.RandomPicks, r.Unfillable, strings.Join(r.UnmetCategories, ","))
		}
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d plans failed", failed, len(items))
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// OUTPUT
// ══════════════════════════════════════════════════════════════════════════════

func printGrid(w io.Writer, grid map[int][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for grade := 9; grade <= 12; grade++ {
		fmt.Fprintf(tw, "Grade %d\t%s\n", grade, strings.Join(grid[grade], "\t"))
	}
	_ = tw.Flush()
}

func printReport(w io.Writer, r plan.Report) {
	fmt.Fprintf(w, "\ninterest matches: %d, random picks: %d, unfillable: %d\n",
		r.InterestMatches, r.RandomPicks, r.Unfillable)
	if len(r.UnmetCategories) > 0 {
		fmt.Fprintf(w, "unmet requirements: %s\n", strings.Join(r.UnmetCategories, ", "))
	}
	if len(r.Dropped) > 0 {
		fmt.Fprintf(w, "dropped (row full): %s\n", strings.Join(r.Dropped, ", "))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROMPTER
// ══════════════════════════════════════════════════════════════════════════════

// stdinPrompter asks on out and reads one line from in per prompt.
type stdinPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newStdinPrompter(in io.Reader, out io.Writer) *stdinPrompter {
	return &stdinPrompter{in: bufio.NewReader(in), out: out}
}

// Prompt implements plan.Prompter. End of input answers "pick".
func (p *stdinPrompter) Prompt(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(p.out, "%s\n> ", message)

	line, err := p.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if strings.TrimSpace(line) == "" {
			return "pick", nil
		}
		return strings.TrimSpace(line), nil
	}
	if err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
