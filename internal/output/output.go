package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/dshills/lens/internal/review"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *review.Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{Color: !color.NoColor}, nil
	case "json":
		return &JSONWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *review.Report, format, outPath string) error {
	return WriteReports([]*review.Report{report}, format, outPath)
}

// WriteReports writes each report in turn to the same output.
func WriteReports(reports []*review.Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	if outPath == "" {
		return writeAll(writer, os.Stdout, reports)
	}
	if tw, ok := writer.(*TextWriter); ok {
		tw.Color = false
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writeAll(writer, f, reports); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeAll(writer Writer, w io.Writer, reports []*review.Report) error {
	for _, r := range reports {
		if err := writer.Write(w, r); err != nil {
			return err
		}
	}
	return nil
}
