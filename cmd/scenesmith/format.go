package main

import (
	"fmt"

	"github.com/bug39/scenesmith/pkg/analysis"
	"github.com/bug39/scenesmith/pkg/validation"
)

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  [%s] %s\n", e.Level, e.Message)
			if e.Path != "" {
				fmt.Printf("    -> %s = %v\n", e.Path, e.ActualValue)
			}
			if e.Expected != "" {
				fmt.Printf("    expected: %s\n", e.Expected)
			}
			for _, s := range e.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Printf("  [%s] %s\n", w.Level, w.Message)
			if w.Entity != "" {
				fmt.Printf("    entity: %s\n", w.Entity)
			}
			for _, s := range w.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printAnalysis(report analysis.CollisionReport, score analysis.CompositionScore) {
	fmt.Println("Scene Analysis")
	fmt.Println("==============")
	fmt.Println()
	fmt.Print(analysis.Summary(report, score))

	if len(report.DensityRows) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Density grid (top = north):")
	size := report.DensityGrid.Size
	for row := 0; row < size; row++ {
		fmt.Print("  ")
		for col := 0; col < size; col++ {
			fmt.Printf("%3d", report.DensityGrid.Count(col, row))
		}
		fmt.Println()
	}
}
