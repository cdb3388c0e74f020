// Package commands implements the mpdump command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	multipart "github.com/indigo-web/multipartparser"
	"github.com/indigo-web/multipartparser/internal/logger"
)

const defaultChunkSize = 32 * 1024

type options struct {
	contentType string
	boundary    string
	chunkSize   int
	outDir      string
	table       bool
	envFiles    []string

	logFormat string
	logLevel  string

	maxParts, maxTotalSize, maxPartSize, maxFieldSize int64
	maxHeaderPairs, maxHeaderSize                     int
}

// Execute runs the root command with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd returns the mpdump command.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "mpdump [file]",
		Short: "Decode a multipart/form-data body",
		Long: `mpdump streams a multipart/form-data body through the parser and prints
every part it carries. Field values are decoded from their declared charset.
File parts are saved under --out with generated names, or only measured if
--out is not set. With --table, parts are printed as a table once the body
is parsed.

The body is read from the file given, or from stdin if none is given or it
is "-". Limits are read from MULTIPART_* environment variables, optionally
loaded from --env-file; flags take precedence.

Examples:
  # Boundary taken from a captured request's Content-Type
  mpdump body.bin --content-type 'multipart/form-data; boundary=----abc'

  # Save files, feeding the parser 512 bytes at a time
  cat body.bin | mpdump --boundary ----abc --out ./files --chunk-size 512`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.contentType, "content-type", "", "Content-Type of the body, holding the boundary")
	flags.StringVar(&opts.boundary, "boundary", "", "boundary, if --content-type is not given")
	flags.IntVar(&opts.chunkSize, "chunk-size", defaultChunkSize, "bytes fed to the parser per write")
	flags.StringVarP(&opts.outDir, "out", "o", "", "directory to save file parts to")
	flags.BoolVar(&opts.table, "table", false, "print parts as a table once the body is parsed")
	flags.StringSliceVar(&opts.envFiles, "env-file", nil, "load MULTIPART_* variables from dotenv files")
	flags.StringVar(&opts.logFormat, "log-format", string(logger.FormatText), "log format (text, json)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	flags.Int64Var(&opts.maxParts, "max-parts", 0, "maximal number of parts, 0 for no limit")
	flags.Int64Var(&opts.maxTotalSize, "max-total-size", 0, "maximal size of all part bodies, 0 for no limit")
	flags.Int64Var(&opts.maxPartSize, "max-part-size", 0, "maximal size of a part body, 0 for no limit")
	flags.Int64Var(&opts.maxFieldSize, "max-field-size", 0, "maximal size of a field value, 0 for no limit")
	flags.IntVar(&opts.maxHeaderPairs, "max-header-pairs", 0, "maximal number of headers per part")
	flags.IntVar(&opts.maxHeaderSize, "max-header-size", 0, "maximal size of a part's header block")

	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	if opts.chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", opts.chunkSize)
	}

	contentType, err := opts.resolveContentType()
	if err != nil {
		return err
	}

	settings, err := opts.settings(cmd)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}

	log, err := logger.New(
		logger.WithLevel(level),
		logger.WithFormat(logger.Format(opts.logFormat)),
		logger.WithOutput(cmd.ErrOrStderr()),
	)
	if err != nil {
		return err
	}

	in, closeInput, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer closeInput()

	if opts.outDir != "" {
		if err = os.MkdirAll(opts.outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	headers := http.Header{}
	headers.Set("Content-Type", contentType)

	d := newDumper(cmd.OutOrStdout(), opts.outDir, opts.table, log)
	parser := multipart.NewParser(d.config(headers, settings))

	if err = feed(cmd.Context(), parser, in, opts.chunkSize); err != nil {
		return errors.Join(err, d.close())
	}

	return d.close()
}

func (o *options) resolveContentType() (string, error) {
	switch {
	case o.contentType != "":
		return o.contentType, nil
	case o.boundary != "":
		return "multipart/form-data; boundary=" + o.boundary, nil
	default:
		return "", errors.New("either --content-type or --boundary is required")
	}
}

// settings loads limits from the environment and applies the flags set
// explicitly on top of them
func (o *options) settings(cmd *cobra.Command) (multipart.Settings, error) {
	if len(o.envFiles) > 0 {
		// variables already set in the environment win over the files
		if err := godotenv.Load(o.envFiles...); err != nil {
			return multipart.Settings{}, fmt.Errorf("load env files: %w", err)
		}
	}

	s, err := multipart.LoadSettings()
	if err != nil {
		return s, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-parts") {
		s.MaxParts = o.maxParts
	}
	if flags.Changed("max-total-size") {
		s.MaxTotalSize = o.maxTotalSize
	}
	if flags.Changed("max-part-size") {
		s.MaxPartSize = o.maxPartSize
	}
	if flags.Changed("max-field-size") {
		s.MaxFieldSize = o.maxFieldSize
	}
	if flags.Changed("max-header-pairs") {
		s.MaxHeaderPairs = o.maxHeaderPairs
	}
	if flags.Changed("max-header-size") {
		s.MaxHeaderSize = o.maxHeaderSize
	}

	return s, nil
}

func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}

	return f, func() { _ = f.Close() }, nil
}

// feed writes the input into the parser chunkSize bytes at a time and ends
// the body once the input is exhausted
func feed(ctx context.Context, parser *multipart.Parser, in io.Reader, chunkSize int) error {
	buf := make([]byte, chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := io.ReadFull(in, buf)
		if n > 0 {
			if _, werr := parser.Write(buf[:n]); werr != nil {
				return werr
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return parser.End()
		default:
			return fmt.Errorf("read input: %w", err)
		}
	}
}
