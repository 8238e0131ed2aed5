package cmd

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/service"
)

var ticketsCmd = &cobra.Command{
	Use:     "tickets",
	Aliases: []string{"t"},
	Short:   "Inspect and update tickets",
}

var ticketListFlags struct {
	status   string
	tags     []string
	search   string
	from     string
	to       string
	page     int
	pageSize int
}

var ticketsListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List tickets, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		q := url.Values{}
		setIf(q, "status", ticketListFlags.status)
		setIf(q, "tags", strings.Join(ticketListFlags.tags, ","))
		setIf(q, "search", ticketListFlags.search)
		setIf(q, "date_from", ticketListFlags.from)
		setIf(q, "date_to", ticketListFlags.to)
		if ticketListFlags.page > 0 {
			q.Set("page", strconv.Itoa(ticketListFlags.page))
		}
		if ticketListFlags.pageSize > 0 {
			q.Set("page_size", strconv.Itoa(ticketListFlags.pageSize))
		}
		filter, err := repository.ParseTicketFilter(q)
		if err != nil {
			return err
		}

		rt, err := newRuntime(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer rt.Close()

		tickets, err := rt.tickets.ListTickets(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return printTickets(cmd.OutOrStdout(), tickets)
	},
}

var ticketsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count tickets per status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer rt.Close()

		stats, err := rt.tickets.GetStats(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, status := range domain.TicketStatuses {
			fmt.Fprintf(w, "%s\t%d\n", status, stats.ByStatus[status])
		}
		fmt.Fprintf(w, "total\t%d\n", stats.Total)
		return w.Flush()
	},
}

func bulkStatusCmd(use, short string, status domain.TicketStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.tickets.BulkUpdateTicketStatus(cmd.Context(), args, status)
			if err != nil {
				return err
			}
			return printBulkResult(cmd.OutOrStdout(), result)
		},
	}
}

var ticketsDeleteCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete tickets",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer rt.Close()
		return printBulkResult(cmd.OutOrStdout(), rt.tickets.BulkDeleteTickets(cmd.Context(), args))
	},
}

func printTickets(out io.Writer, tickets []domain.Ticket) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tUPDATED\tTAGS\tTITLE")
	for i := range tickets {
		t := &tickets[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status, t.UpdatedAt.Local().Format("2006-01-02 15:04"), strings.Join(t.Tags, ","), t.Title())
	}
	return w.Flush()
}

func printBulkResult(out io.Writer, result *service.BulkResult) error {
	for i := range result.Successful {
		fmt.Fprintf(out, "ok\t%s\t%s\n", result.Successful[i].ID, result.Successful[i].Status)
	}
	for _, failure := range result.Failed {
		fmt.Fprintf(out, "failed\t%s\t%s\n", failure.ID, failure.Error)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d tickets failed", len(result.Failed), len(result.Failed)+len(result.Successful))
	}
	return nil
}

func setIf(q url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		q.Set(key, value)
	}
}

func init() {
	flags := ticketsListCmd.Flags()
	flags.StringVarP(&ticketListFlags.status, "status", "s", "", "draft, in_progress, completed or archived")
	flags.StringSliceVarP(&ticketListFlags.tags, "tag", "t", nil, "only tickets carrying any of these tags (repeatable)")
	flags.StringVarP(&ticketListFlags.search, "search", "q", "", "case-insensitive text search")
	flags.StringVar(&ticketListFlags.from, "from", "", "created on or after (YYYY-MM-DD or RFC3339)")
	flags.StringVar(&ticketListFlags.to, "to", "", "created on or before (YYYY-MM-DD or RFC3339)")
	flags.IntVar(&ticketListFlags.page, "page", 0, "page number")
	flags.IntVar(&ticketListFlags.pageSize, "page-size", 0, "tickets per page")

	ticketsCmd.AddCommand(ticketsListCmd)
	ticketsCmd.AddCommand(ticketsStatsCmd)
	ticketsCmd.AddCommand(bulkStatusCmd("start", "Move tickets to in_progress", domain.TicketStatusInProgress))
	ticketsCmd.AddCommand(bulkStatusCmd("complete", "Mark tickets completed", domain.TicketStatusCompleted))
	ticketsCmd.AddCommand(bulkStatusCmd("archive", "Archive tickets", domain.TicketStatusArchived))
	ticketsCmd.AddCommand(ticketsDeleteCmd)
}
