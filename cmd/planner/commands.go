package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/appointment-planner/internal/application"
	"github.com/example/appointment-planner/internal/ics"
	"github.com/example/appointment-planner/internal/timeresolver"
)

func newImportTripsCommand(opts *globalOptions) *cobra.Command {
	var (
		selectPax  string
		categoryID string
	)

	cmd := &cobra.Command{
		Use:   "import-trips FILE",
		Short: "Replace the flight cache from a trip export",
		Long: `import-trips reads a trip export ("-" for stdin), replaces every traveler's
cached flights, and optionally selects a traveler. With --category the
selected traveler's flights are also added as appointments, skipping flights
imported before.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if categoryID != "" && selectPax == "" {
				return fmt.Errorf("--category requires --select")
			}
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			cfg, logger, err := loadRuntime(cmd, opts)
			if err != nil {
				return err
			}
			p, err := openPlanner(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx := cmd.Context()
			result, err := p.pax.ImportTrips(ctx, raw)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trips: %d, records: %d, flights stored: %d, skipped: %d\n",
				result.Stats.TripCount, result.Stats.RecordCount, result.Flights, result.Skipped)
			fmt.Fprintf(out, "travelers: %s\n", strings.Join(result.PaxNames, ", "))

			if selectPax == "" {
				return nil
			}
			if _, err := p.pax.SelectPax(ctx, selectPax); err != nil {
				return err
			}
			fmt.Fprintf(out, "selected: %s\n", selectPax)

			if categoryID == "" {
				return nil
			}
			imported, err := p.pax.ImportFlightsAsAppointments(ctx, application.ImportFlightsParams{PaxName: selectPax, CategoryID: categoryID})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "appointments created: %d, duplicates: %d\n", len(imported.Created), imported.Duplicates)
			return nil
		},
	}
	cmd.Flags().StringVar(&selectPax, "select", "", "traveler to select after the import")
	cmd.Flags().StringVar(&categoryID, "category", "", "category for appointments created from the selected traveler's flights")
	return cmd
}

func newExportCommand(opts *globalOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all data as JSON or the appointments as iCalendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "json" && format != "ics" {
				return fmt.Errorf("unsupported format %q: use json or ics", format)
			}

			cfg, logger, err := loadRuntime(cmd, opts)
			if err != nil {
				return err
			}
			p, err := openPlanner(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			snapshot, err := p.transfer.Export(cmd.Context())
			if err != nil {
				return err
			}
			body, err := renderExport(snapshot, format)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, body)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "export format: json or ics")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func renderExport(snapshot application.Snapshot, format string) ([]byte, error) {
	if format == "json" {
		return application.EncodeSnapshot(snapshot)
	}
	names := make(map[string]string, len(snapshot.Categories))
	for _, category := range snapshot.Categories {
		names[category.ID] = category.Name
	}
	feed := ics.Feed{Name: "Appointments", Stamp: snapshot.ExportedAt, Categories: names}
	return []byte(ics.Render(feed, snapshot.Appointments)), nil
}

type resolveOptions struct {
	date  string
	start string
	end   string
	mode  string
	zone  string
	step  int
}

type resolveOutput struct {
	Mode         string `json:"time_mode"`
	TimeZone     string `json:"time_zone,omitempty"`
	Today        string `json:"today"`
	MinStartTime string `json:"min_start_time"`
	StartUTC     string `json:"start_utc,omitempty"`
	EndUTC       string `json:"end_utc,omitempty"`
	StartUTCMs   *int64 `json:"start_utc_ms,omitempty"`
	EndUTCMs     *int64 `json:"end_utc_ms,omitempty"`
	Overnight    bool   `json:"overnight"`
	ValidRange   bool   `json:"valid_range"`
	StartInPast  bool   `json:"start_in_past"`
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a wall-clock appointment to UTC instants",
		Example: `  planner resolve --date 2026-03-29 --start 00:30 --end 03:30 --zone Europe/London
  planner resolve --date 2026-01-10 --start 23:00 --end 01:00 --mode local`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := resolve(opts, time.Now())
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}
	cmd.Flags().StringVar(&opts.date, "date", "", "date key YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.start, "start", "", "start time HH:MM")
	cmd.Flags().StringVar(&opts.end, "end", "", "optional end time HH:MM; earlier than start means the next day")
	cmd.Flags().StringVar(&opts.mode, "mode", string(timeresolver.ModeTimezone), "time mode: timezone or local")
	cmd.Flags().StringVar(&opts.zone, "zone", "", "IANA zone from the supported list (default: device zone)")
	cmd.Flags().IntVar(&opts.step, "step", 5, "minute step used for the minimum start time")
	return cmd
}

func resolve(opts resolveOptions, now time.Time) (resolveOutput, error) {
	mode := timeresolver.ParseMode(opts.mode)
	if mode == "" {
		return resolveOutput{}, fmt.Errorf("unsupported mode %q: use timezone or local", opts.mode)
	}
	zone := ""
	if mode == timeresolver.ModeTimezone {
		zone = strings.TrimSpace(opts.zone)
		if zone == "" {
			zone = timeresolver.DeviceZone()
		}
		if !timeresolver.IsSupportedZone(zone) {
			return resolveOutput{}, fmt.Errorf("unsupported time zone %q", zone)
		}
	}
	if !timeresolver.IsValidDateKey(opts.date) {
		return resolveOutput{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", opts.date)
	}
	if _, ok := timeresolver.TimeToMinutes(opts.start); !ok {
		return resolveOutput{}, fmt.Errorf("invalid start time %q: use HH:MM", opts.start)
	}

	frame := timeresolver.Frame{Mode: mode, Zone: zone}
	span := timeresolver.BuildTimeSpan(timeresolver.SpanInput{
		Date:      opts.date,
		StartTime: opts.start,
		EndTime:   opts.end,
		Mode:      mode,
		Zone:      zone,
	})

	out := resolveOutput{
		Mode:         string(mode),
		TimeZone:     zone,
		Today:        timeresolver.TodayKey(frame, now),
		MinStartTime: timeresolver.RoundedNowTime(frame, now, opts.step),
		StartUTCMs:   span.StartUTC,
		EndUTCMs:     span.EndUTC,
		Overnight:    span.Overnight,
		ValidRange:   timeresolver.IsValidTimeRange(opts.start, opts.end),
		StartInPast:  timeresolver.StartInPast(frame, timeresolver.Moment{Date: opts.date, Time: opts.start}, now),
	}
	if span.StartUTC != nil {
		out.StartUTC = time.UnixMilli(*span.StartUTC).UTC().Format(time.RFC3339)
	}
	if span.EndUTC != nil {
		out.EndUTC = time.UnixMilli(*span.EndUTC).UTC().Format(time.RFC3339)
	}
	return out, nil
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [PASSWORD]",
		Short: "Print an argon2id hash for PLANNER_BASIC_AUTH_HASH",
		Long: `hash-password prints the PHC encoded argon2id hash of a password. Without an
argument the password is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					password = strings.TrimRight(scanner.Text(), "\r")
				}
				if err := scanner.Err(); err != nil {
					return err
				}
			}

			hash, err := application.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func writeOutput(stdout io.Writer, path string, body []byte) error {
	if path == "" {
		_, err := stdout.Write(body)
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
