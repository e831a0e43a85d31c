package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/bucket"
	"github.com/marmos91/gridstore/pkg/config"
	"github.com/marmos91/gridstore/pkg/docstore"
)

const usageText = `gridstore - chunked file storage over a document store

Usage:
  gridstore <command> [flags]

Commands:
  upload    Store a file and print its id
  download  Retrieve a file by id
  delete    Remove a file and its chunks
  rename    Change a stored file's name
  find      List stored files
  drop      Remove the whole bucket

Run 'gridstore <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "upload":
		err = runUpload(os.Args[2:])
	case "download":
		err = runDownload(os.Args[2:])
	case "delete":
		err = runDelete(os.Args[2:])
	case "rename":
		err = runRename(os.Args[2:])
	case "find":
		err = runFind(os.Args[2:])
	case "drop":
		err = runDrop(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usageText)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// commonFlags registers the flags every command shares.
func commonFlags(fs *flag.FlagSet) (configPath, logLevel *string) {
	configPath = fs.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel = fs.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	return configPath, logLevel
}

// setup loads configuration, configures logging, and connects the selected
// backend. The returned cleanup function releases the store.
func setup(configPath, logLevel string) (*config.Config, *bucket.Bucket, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger.SetLevel(cfg.Logging.Level)

	switch cfg.Logging.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Logging.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
	}

	ctx := context.Background()
	db, err := config.CreateDatabase(ctx, &cfg.Store)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() { closeDatabase(db) }
	return cfg, config.CreateBucket(db, &cfg.Bucket), cleanup, nil
}

// closeDatabase releases the backend. Backends differ in close signatures;
// the memory store has nothing to release.
func closeDatabase(db docstore.Database) {
	switch c := db.(type) {
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close store: %v", err)
		}
	case interface{ Close(ctx context.Context) error }:
		if err := c.Close(context.Background()); err != nil {
			logger.Warn("Failed to close store: %v", err)
		}
	}
}

func runUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	configPath, logLevel := commonFlags(fs)
	file := fs.String("file", "-", "File to upload ('-' reads stdin)")
	name := fs.String("name", "", "Stored filename (default: basename of -file)")
	chunkSize := fs.Int("chunk-size", 0, "Chunk size in bytes for this upload (0 uses the configured default)")
	fs.Parse(args)

	_, b, cleanup, err := setup(*configPath, *logLevel)
	if err != nil {
		return err
	}
	defer cleanup()

	var source io.Reader = os.Stdin
	filename := *name
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", *file, err)
		}
		defer f.Close()
		source = f
		if filename == "" {
			filename = filepath.Base(*file)
		}
	}
	if filename == "" {
		return fmt.Errorf("-name is required when reading from stdin")
	}

	var opts *bucket.UploadOptions
	if *chunkSize > 0 {
		opts = &bucket.UploadOptions{ChunkSizeBytes: int32(*chunkSize)}
	}

	id, err := b.UploadFromStream(context.Background(), filename, source, opts)
	if err != nil {
		return err
	}

	fmt.Println(formatID(id))
	return nil
}

func runDownload(args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	configPath, logLevel := commonFlags(fs)
	idStr := fs.String("id", "", "File id to download (required)")
	out := fs.String("out", "-", "Output path ('-' writes to stdout)")
	fs.Parse(args)

	if *idStr == "" {
		return fmt.Errorf("-id is required")
	}

	cfg, b, cleanup, err := setup(*configPath, *logLevel)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := config.ParseFileID(cfg.Store.Type, *idStr)
	if err != nil {
		return err
	}

	var dst io.Writer = os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *out, err)
		}
		defer f.Close()
		dst = f
	}

	written, err := b.DownloadToStream(context.Background(), id, dst)
	if err != nil {
		return err
	}

	logger.Info("Downloaded %d bytes", written)
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath, logLevel := commonFlags(fs)
	idStr := fs.String("id", "", "File id to delete (required)")
	fs.Parse(args)

	if *idStr == "" {
		return fmt.Errorf("-id is required")
	}

	cfg, b, cleanup, err := setup(*configPath, *logLevel)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := config.ParseFileID(cfg.Store.Type, *idStr)
	if err != nil {
		return err
	}

	return b.Delete(context.Background(), id)
}

func runRename(args []string) error {
	fs := flag.NewFlagSet("rename", flag.ExitOnError)
	configPath, logLevel := commonFlags(fs)
	idStr := fs.String("id", "", "File id to rename (required)")
	name := fs.String("name", "", "New filename (required)")
	fs.Parse(args)

	if *idStr == "" || *name == "" {
		return fmt.Errorf("-id and -name are required")
	}

	cfg, b, cleanup, err := setup(*configPath, *logLevel)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := config.ParseFileID(cfg.Store.Type, *idStr)
	if err != nil {
		return err
	}

	return b.Rename(context.Background(), id, *name)
}

func runFind(args []string) error {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	configPath, logLevel := commonFlags(fs)
	name := fs.String("name", "", "Only list files with this exact name")
	limit := fs.Int64("limit", 0, "Maximum number of results (0 means no limit)")
	skip := fs.Int64("skip", 0, "Number of results to skip")
	fs.Parse(args)

	_, b, cleanup, err := setup(*configPath, *logLevel)
	if err != nil {
		return err
	}
	defer cleanup()

	var filter docstore.Document
	if *name != "" {
		filter = docstore.Document{"filename": *name}
	}

	opts := &bucket.FindOptions{
		Skip: *skip,
		Sort: []docstore.SortKey{
			{Field: "filename", Order: 1},
			{Field: "uploadDate", Order: 1},
		},
	}
	if *limit > 0 {
		opts.Limit = limit
	}

	ctx := context.Background()
	cursor, err := b.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSIZE\tUPLOADED\tMD5")

	for cursor.Next(ctx) {
		doc := cursor.Current()

		filename, _ := docstore.StringField(doc, "filename")
		length, _ := docstore.Int64Field(doc, "length")
		digest, _ := docstore.StringField(doc, "md5")
		if digest == "" {
			digest = "-"
		}

		uploaded := "-"
		if t, ok := docstore.TimeField(doc, "uploadDate"); ok {
			uploaded = t.Format("2006-01-02 15:04:05")
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", formatID(doc["_id"]), filename, length, uploaded, digest)
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	return w.Flush()
}

func runDrop(args []string) error {
	fs := flag.NewFlagSet("drop", flag.ExitOnError)
	configPath, logLevel := commonFlags(fs)
	force := fs.Bool("force", false, "Skip the confirmation prompt")
	fs.Parse(args)

	cfg, b, cleanup, err := setup(*configPath, *logLevel)
	if err != nil {
		return err
	}
	defer cleanup()

	if !*force {
		fmt.Fprintf(os.Stderr, "This removes every file in bucket %q. Continue? [y/N] ", cfg.Bucket.Name)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}
	}

	return b.Drop(context.Background())
}

// formatID renders an opaque file id in the form the download and delete
// commands accept back. ObjectIDs print as plain hex.
func formatID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case interface{ Hex() string }:
		return v.Hex()
	default:
		return fmt.Sprintf("%v", v)
	}
}
