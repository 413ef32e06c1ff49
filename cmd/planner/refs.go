package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/repository"
	"github.com/andresuchdata/shipment-priority/internal/source"
	"github.com/urfave/cli/v2"
)

func referenceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "partno", Usage: "Part number", Required: true},
		&cli.Float64Flag{Name: "stdpack-min", Usage: "Minimum standard pack (pieces per container)"},
		&cli.Float64Flag{Name: "stdpack-max", Usage: "Maximum standard pack (pieces per container)"},
		&cli.StringFlag{Name: "customer", Usage: "Customer"},
		&cli.StringFlag{Name: "desc", Usage: "Description"},
		&cli.Float64Flag{Name: "rate", Usage: "Production rate percent", Value: 100},
	}
}

func referenceFromFlags(c *cli.Context) domain.PartReference {
	ref := domain.PartReference{
		PartNumber:            c.String("partno"),
		Customer:              c.String("customer"),
		Description:           c.String("desc"),
		ProductionRatePercent: c.Float64("rate"),
	}
	if c.IsSet("stdpack-min") {
		v := c.Float64("stdpack-min")
		ref.PackSizeMin = &v
	}
	if c.IsSet("stdpack-max") {
		v := c.Float64("stdpack-max")
		ref.PackSizeMax = &v
	}
	return ref
}

func refsCommand() *cli.Command {
	return &cli.Command{
		Name:  "refs",
		Usage: "Manage part reference data",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List reference records",
				Action: func(c *cli.Context) error {
					a, err := fromContext(c)
					if err != nil {
						return err
					}
					refs, err := a.References.List(c.Context)
					if err != nil {
						return err
					}

					tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "PARTNO\tSTDPACK MIN\tSTDPACK MAX\tCUSTOMER\tDESC\tRATE")
					for _, r := range refs {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%g\n",
							r.PartNumber, optional(r.PackSizeMin), optional(r.PackSizeMax),
							r.Customer, r.Description, r.ProductionRatePercent)
					}
					return tw.Flush()
				},
			},
			{
				Name:  "add",
				Usage: "Create a reference record",
				Flags: referenceFlags(),
				Action: func(c *cli.Context) error {
					a, err := fromContext(c)
					if err != nil {
						return err
					}
					ref, err := a.References.Create(c.Context, referenceFromFlags(c))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "created %s\n", ref.PartNumber)
					return nil
				},
			},
			{
				Name:  "update",
				Usage: "Replace a reference record",
				Flags: referenceFlags(),
				Action: func(c *cli.Context) error {
					a, err := fromContext(c)
					if err != nil {
						return err
					}
					ref := referenceFromFlags(c)
					updated, err := a.References.Update(c.Context, ref.PartNumber, ref)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "updated %s\n", updated.PartNumber)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a reference record",
				ArgsUsage: "PARTNO",
				Action: func(c *cli.Context) error {
					a, err := fromContext(c)
					if err != nil {
						return err
					}
					if c.NArg() != 1 {
						return cli.Exit("expected exactly one part number", 2)
					}
					if err := a.References.Delete(c.Context, c.Args().First()); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "deleted %s\n", c.Args().First())
					return nil
				},
			},
			{
				Name:      "import",
				Usage:     "Bulk-load references from a .csv or .xlsx file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mode", Usage: "replace or merge", Value: string(repository.ImportMerge)},
				},
				Action: func(c *cli.Context) error {
					a, err := fromContext(c)
					if err != nil {
						return err
					}
					if c.NArg() != 1 {
						return cli.Exit("expected exactly one file", 2)
					}
					mode, err := repository.ParseImportMode(c.String("mode"))
					if err != nil {
						return err
					}

					table, err := source.NewFileLoader(c.Args().First()).Load(c.Context)
					if err != nil {
						return err
					}
					res, err := a.References.ImportTable(c.Context, table, mode)
					if err != nil {
						return err
					}

					fmt.Fprintf(c.App.Writer, "imported %d references (%s)\n", res.Imported, res.Mode)
					for _, w := range res.Warnings {
						fmt.Fprintf(c.App.ErrWriter, "warning: %s\n", w)
					}
					return nil
				},
			},
		},
	}
}
