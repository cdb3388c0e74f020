package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	multipart "github.com/indigo-web/multipartparser"
	"github.com/indigo-web/multipartparser/internal/logger"
)

// dumper prints the parts reported by the parser and saves file parts to
// outDir. Client filenames are never used as paths: saved files get a random
// name keeping only the extension.
type dumper struct {
	out    io.Writer
	outDir string
	log    *slog.Logger

	// table collects rows rendered at the end instead of printing a line per
	// part
	table bool
	rows  [][]string

	parts int
	// current is the file being written, left open if parsing fails mid-part
	current *os.File
	// errs collects failures of the output side, which can't halt the parser
	errs []error
}

func newDumper(out io.Writer, outDir string, table bool, log *slog.Logger) *dumper {
	return &dumper{
		out:    out,
		outDir: outDir,
		table:  table,
		log:    log,
	}
}

func (d *dumper) config(headers http.Header, settings multipart.Settings) multipart.Config {
	return multipart.Config{
		Headers:  headers,
		Settings: settings,
		OnField:  d.field,
		OnFile:   d.file,
		OnDone: d.done,
		Logger: d.log,
	}
}

func (d *dumper) field(info multipart.PartInfo, value []byte) {
	d.parts++

	text, err := multipart.DecodeField(info, value)
	if err != nil {
		d.log.Warn("field kept undecoded", slog.String("name", info.Name), logger.Error(err))
		text = string(value)
	}

	if d.table {
		d.rows = append(d.rows, []string{"field", info.Name, "", info.ContentType, strconv.Itoa(len(value)), strconv.Quote(text)})
		return
	}

	d.printf("field name=%q value=%q\n", info.Name, text)
}

func (d *dumper) file(info multipart.PartInfo) multipart.FileSink {
	d.parts++

	var (
		size int64
		path string
		f    *os.File
	)

	if d.outDir != "" {
		path = filepath.Join(d.outDir, uuid.NewString()+filepath.Ext(filepath.Base(info.Filename)))

		var err error
		if f, err = os.Create(path); err != nil {
			d.errs = append(d.errs, fmt.Errorf("save %q: %w", info.Filename, err))
			path = ""
		}

		d.current = f
	}

	return func(chunk []byte) {
		if chunk != nil {
			size += int64(len(chunk))
			if f == nil {
				return
			}

			if _, err := f.Write(chunk); err != nil {
				d.errs = append(d.errs, fmt.Errorf("save %q: %w", info.Filename, err))
				_ = f.Close()
				f, path, d.current = nil, "", nil
			}

			return
		}

		if f != nil {
			d.current = nil
			if err := f.Close(); err != nil {
				d.errs = append(d.errs, fmt.Errorf("save %q: %w", info.Filename, err))
			}
		}

		d.log.Info("file received", logger.Part(info.Name, info.Filename, true), logger.Size(size))
		if d.table {
			d.rows = append(d.rows, []string{"file", info.Name, info.Filename, info.ContentType, strconv.FormatInt(size, 10), path})
			return
		}

		d.printf("file name=%q filename=%q type=%s size=%d", info.Name, info.Filename, info.ContentType, size)
		if path != "" {
			d.printf(" saved=%s", path)
		}
		d.printf("\n")
	}
}

func (d *dumper) done() {
	if d.table {
		table := tablewriter.NewWriter(d.out)
		table.SetHeader([]string{"Kind", "Name", "Filename", "Type", "Size", "Value"})
		table.SetAutoWrapText(false)
		table.SetAutoFormatHeaders(true)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetCenterSeparator("")
		table.SetColumnSeparator("")
		table.SetRowSeparator("")
		table.SetHeaderLine(false)
		table.SetBorder(false)
		table.SetTablePadding("  ")
		table.SetNoWhiteSpace(true)
		table.AppendBulk(d.rows)
		table.Render()
	}

	d.printf("parts: %d\n", d.parts)
}

func (d *dumper) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(d.out, format, args...); err != nil {
		d.errs = append(d.errs, err)
	}
}

// close releases a file left incomplete and reports output failures
func (d *dumper) close() error {
	if d.current != nil {
		_ = d.current.Close()
		d.current = nil
	}

	return errors.Join(d.errs...)
}
