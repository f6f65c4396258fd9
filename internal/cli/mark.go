package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/auditor/internal/client"
	"github.com/sprite-ai/auditor/internal/model"
)

var markCmd = &cobra.Command{
	Use:   "mark <file> <start>[-<end>] <state>",
	Short: "Label a line range without opening the editor",
	Long: `Label lines of a file as Reviewed, Modified, Ignored or Cleared. Line
numbers are 1-based and inclusive.

Examples:
  auditor mark main.go 10-42 Reviewed
  auditor mark main.go 7 Ignored
  auditor mark --total 120 gen/api.pb.go 1-120 Ignored`,
	Args: cobra.ExactArgs(3),
	RunE: runMark,
}

var transformCmd = &cobra.Command{
	Use:   "transform <file>",
	Short: "Mark lines added since the last audit as modified",
	Args:  cobra.ExactArgs(1),
	RunE:  runTransform,
}

var priorityCmd = &cobra.Command{
	Use:   "priority <file> <High|Medium|Low|Ignore>",
	Short: "Set the review priority of a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runPriority,
}

func init() {
	markCmd.Flags().Int("total", 0, "line count of the file (read from disk when omitted)")
}

func runMark(cmd *cobra.Command, args []string) error {
	r, err := parseLineRange(args[1])
	if err != nil {
		return err
	}
	state, err := model.ParseReviewState(args[2])
	if err != nil {
		return err
	}
	total, _ := cmd.Flags().GetInt("total")
	if total == 0 {
		if total, err = countLines(args[0]); err != nil {
			return err
		}
	}

	fresh, err := newClient().MarkRange(cmd.Context(), client.MarkRequest{
		FileName:   args[0],
		StartLine:  r.Start,
		EndLine:    r.End,
		State:      state,
		TotalLines: total,
	})
	if err != nil {
		return err
	}
	printState(cmd.OutOrStdout(), args[0], fresh)
	return nil
}

func runTransform(cmd *cobra.Command, args []string) error {
	fresh, err := newClient().Transform(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printState(cmd.OutOrStdout(), args[0], fresh)
	return nil
}

func runPriority(cmd *cobra.Command, args []string) error {
	p, err := model.ParsePriority(args[1])
	if err != nil {
		return err
	}
	if err := newClient().UpdateMetadata(cmd.Context(), args[0], p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: priority %s\n", args[0], p)
	return nil
}

// parseLineRange reads "7" or "10-42" as 1-based lines and returns the
// zero-based range.
func parseLineRange(s string) (model.LineRange, error) {
	startText, endText, found := strings.Cut(s, "-")
	if !found {
		endText = startText
	}
	start, err := strconv.Atoi(startText)
	if err != nil || start < 1 {
		return model.LineRange{}, fmt.Errorf("invalid line range %q", s)
	}
	end, err := strconv.Atoi(endText)
	if err != nil || end < 1 {
		return model.LineRange{}, fmt.Errorf("invalid line range %q", s)
	}
	return model.LineRange{Start: start - 1, End: end - 1}.Ordered(), nil
}

func countLines(name string) (int, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return 0, fmt.Errorf("counting lines of %s (pass --total for files not on disk): %w", name, err)
	}
	n := bytes.Count(data, []byte("\n"))
	if len(data) > 0 && data[len(data)-1] != '\n' {
		n++
	}
	return n, nil
}

// printState lists the labeled ranges of a file, 1-based.
func printState(w io.Writer, fileName string, s *client.ReviewState) {
	fmt.Fprintln(w, fileName)
	for _, iv := range s.Intervals() {
		fmt.Fprintf(w, "  %-9s %d-%d\n", iv.Label, iv.Range.Start+1, iv.Range.End+1)
	}
}
