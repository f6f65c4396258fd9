package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/auditor/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show audit progress of every file",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	infos, err := newClient().FetchInfo(cmd.Context())
	if err != nil {
		return err
	}
	summaries := make([]model.FileSummary, 0, len(infos))
	for _, fi := range infos {
		summaries = append(summaries, fi.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].FileName < summaries[j].FileName })
	renderStatus(cmd.OutOrStdout(), summaries)
	return nil
}

func renderStatus(w io.Writer, summaries []model.FileSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No audited files.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Lines", "Reviewed", "Modified", "Ignored", "Comments", "Priority", "Done"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(" ")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	var total model.FileSummary
	for _, s := range summaries {
		priority := string(s.Priority)
		if priority == "" {
			priority = "-"
		}
		table.Append([]string{
			s.FileName,
			fmt.Sprint(s.TotalLines),
			fmt.Sprint(s.Reviewed),
			fmt.Sprint(s.Modified),
			fmt.Sprint(s.Ignored),
			fmt.Sprint(s.Comments),
			priority,
			fmt.Sprintf("%.0f%%", s.Progress()*100),
		})
		total.TotalLines += s.TotalLines
		total.Reviewed += s.Reviewed
		total.Modified += s.Modified
		total.Ignored += s.Ignored
		total.Comments += s.Comments
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d files", len(summaries)),
		fmt.Sprint(total.TotalLines),
		fmt.Sprint(total.Reviewed),
		fmt.Sprint(total.Modified),
		fmt.Sprint(total.Ignored),
		fmt.Sprint(total.Comments),
		"",
		fmt.Sprintf("%.0f%%", total.Progress()*100),
	})
	table.Render()
}
