package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/presenter"
	"github.com/andresuchdata/shipment-priority/internal/service"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Compute the plan and print the floor sequence",
		Flags: append(windowFlags(),
			thresholdFlag(),
			&cli.BoolFlag{Name: "progress", Usage: "Show a progress bar on stderr"},
			&cli.BoolFlag{Name: "daily", Usage: "Print one sequence per shipment date"},
		),
		Action: func(c *cli.Context) error {
			a, err := fromContext(c)
			if err != nil {
				return err
			}
			req, err := planRequest(c)
			if err != nil {
				return err
			}

			var bar *progressbar.ProgressBar
			if c.Bool("progress") {
				bar = progressbar.NewOptions(2,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("loading sources and planning"),
					progressbar.OptionClearOnFinish(),
				)
			}

			res, err := a.Planner.Plan(c.Context, req)
			if err != nil {
				return err
			}
			if bar != nil {
				bar.Describe("rendering")
				_ = bar.Add(1)
			}

			view := presenter.Build(res.Result, threshold(c, a))
			if bar != nil {
				_ = bar.Add(1)
				_ = bar.Finish()
			}

			return printPlan(c.App.Writer, view, res, c.Bool("daily"))
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the plan as CSV",
		Flags: append(windowFlags(),
			thresholdFlag(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file, - for stdout", Value: "-"},
			&cli.BoolFlag{Name: "upload", Usage: "Also upload the export to object storage"},
		),
		Action: func(c *cli.Context) error {
			a, err := fromContext(c)
			if err != nil {
				return err
			}
			req, err := planRequest(c)
			if err != nil {
				return err
			}

			res, err := a.Planner.Plan(c.Context, req)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := presenter.WriteCSV(&buf, presenter.Rows(res.Queue, threshold(c, a))); err != nil {
				return fmt.Errorf("render export: %w", err)
			}

			if out := c.String("output"); out == "-" {
				if _, err := c.App.Writer.Write(buf.Bytes()); err != nil {
					return err
				}
			} else if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			if !c.Bool("upload") {
				return nil
			}
			if a.Storage == nil {
				return fmt.Errorf("object storage not configured")
			}
			key := path.Join(a.Config.Storage.ExportPrefix, fmt.Sprintf("plan_%s_%s.csv", time.Now().UTC().Format("20060102T150405Z"), res.RunID))
			if err := a.Storage.UploadObject(c.Context, key, buf.Bytes(), "text/csv"); err != nil {
				return fmt.Errorf("upload export: %w", err)
			}
			fmt.Fprintf(c.App.ErrWriter, "uploaded %s\n", key)
			return nil
		},
	}
}

func nonUsableCommand() *cli.Command {
	return &cli.Command{
		Name:  "nonusable",
		Usage: "Print the non-usable inventory breakdown",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Usage: "table or csv", Value: "table"},
			&cli.BoolFlag{Name: "refresh", Usage: "Ignore cached sources"},
		},
		Action: func(c *cli.Context) error {
			a, err := fromContext(c)
			if err != nil {
				return err
			}

			res, err := a.Planner.Plan(c.Context, service.PlanRequest{ForceRefresh: c.Bool("refresh")})
			if err != nil {
				return err
			}

			if c.String("format") == "csv" {
				return presenter.WriteNonUsableCSV(c.App.Writer, res.NonUsable)
			}

			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PART\tON FLOOR\tON FLOOR (CONT)\tQUALITY HOLD\tPOSSIBLE DEFECT\tOTHER\tTOTAL\tREPORTED\tDELTA")
			for _, s := range res.NonUsable {
				fmt.Fprintf(tw, "%s\t%g\t%d\t%g\t%g\t%g\t%g\t%s\t%s\n",
					s.PartNumber, s.OnFloorPieces, s.OnFloorContainers, s.QualityHoldPieces,
					s.PossibleDefectPieces, s.OtherPieces, s.TotalPieces,
					optional(s.ReportedPieces), optional(s.DeltaPieces))
			}
			return tw.Flush()
		},
	}
}

func printPlan(w io.Writer, view presenter.View, res *service.PlanResult, daily bool) error {
	fmt.Fprintf(w, "%s\n", view.Message)
	for _, s := range res.Sources {
		state := "fetched"
		if s.Cached {
			state = "cached"
		}
		if s.Error != "" {
			state = "unavailable"
		}
		fmt.Fprintf(w, "  %-9s %-11s %s\n", s.Role, state, s.Location)
	}
	if view.Status != domain.PlanStatusOK {
		printIssues(w, view.Issues)
		return nil
	}

	fmt.Fprintf(w, "\nSequence:\n  %s\n", view.Sequence)
	if daily {
		for _, d := range view.Days {
			fmt.Fprintf(w, "\n%s\n  %s\n", d.Date.Format(domain.DateLayout), d.Text)
		}
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATE\tPART\tCUSTOMER\tINV BEFORE\tDEMAND\tSHORTAGE\tPACK\tCONTAINERS\tTO PRODUCE\tFIRST\tSEMAPHORE")
	for _, r := range view.Rows {
		containers := "-"
		if r.ContainersRequired != nil {
			containers = fmt.Sprint(*r.ContainersRequired)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%g\t%g\t%g\t%s\t%s\t%d\t%t\t%s\n",
			r.Position, r.ShipmentDate.Format(domain.DateLayout), r.PartNumber, r.Customer,
			r.InventoryBeforeEvent, r.DemandPieces, r.ShortagePieces, optional(r.Pack),
			containers, r.ContainersRequiredCapped, r.IsFirstShortageForPart, r.Semaphore)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(view.DataIssues) > 0 {
		fmt.Fprintln(w, "\nParts without a usable pack size:")
		for _, d := range view.DataIssues {
			fmt.Fprintf(w, "  %s (%s): %d events\n", d.PartNumber, d.Customer, d.Events)
		}
	}
	printIssues(w, view.Issues)
	return nil
}

func printIssues(w io.Writer, issues []domain.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(w, "\nData issues (%d):\n", len(issues))
	for _, i := range issues {
		fmt.Fprintf(w, "  [%s/%s] %s\n", i.Stage, i.Severity, i.Message)
	}
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
