package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/biblary/internal/adapter"
	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/config"
	"github.com/matsen/biblary/internal/entry"
	"github.com/matsen/biblary/internal/pdf"
	"github.com/matsen/biblary/internal/storage"
)

var fileOutput string

func init() {
	fileGetCmd.Flags().StringVarP(&fileOutput, "output", "o", "", "Write the file here instead of stdout")

	fileCmd.AddCommand(filePutCmd)
	fileCmd.AddCommand(fileGetCmd)
	fileCmd.AddCommand(fileExistsCmd)
	fileCmd.AddCommand(fileOpenCmd)
	rootCmd.AddCommand(fileCmd)
}

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage files attached to entries",
	Long: `Manage the manuscript, preprint and supplementary files of entries.

Requires storage.kind: filesystem in the config.`,
}

var filePutCmd = &cobra.Command{
	Use:   "put <identifier> <file-type> <path>",
	Short: "Store a PDF for an entry",
	Long: `Store a PDF for an entry, replacing any previous file of that type.

Example:
  biblary file put einstein1905 manuscript ~/Downloads/einstein.pdf`,
	Args: cobra.ExactArgs(3),
	RunE: runFilePut,
}

var fileGetCmd = &cobra.Command{
	Use:   "get <identifier> <file-type>",
	Short: "Write a stored file to stdout or --output",
	Args:  cobra.ExactArgs(2),
	RunE:  runFileGet,
}

var fileExistsCmd = &cobra.Command{
	Use:   "exists <identifier> [file-type]",
	Short: "Report which files are stored for an entry",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runFileExists,
}

var fileOpenCmd = &cobra.Command{
	Use:   "open <identifier> [file-type]",
	Short: "Open a stored PDF in the configured viewer",
	Long: `Open a stored PDF in the viewer named by pdf_reader in the config.

The file type defaults to manuscript.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFileOpen,
}

// FileResponse is the JSON output of file put.
type FileResponse struct {
	Identifier string           `json:"identifier"`
	FileType   storage.FileType `json:"file_type"`
	Size       int              `json:"size"`
	DOI        string           `json:"doi,omitempty"`
}

// ExistsResponse is the JSON output of file exists.
type ExistsResponse struct {
	Identifier string                    `json:"identifier"`
	Files      map[storage.FileType]bool `json:"files"`
}

// OpenResponse is the JSON output of file open.
type OpenResponse struct {
	Status string `json:"status"`
	Path   string `json:"path"`
	Reader string `json:"reader"`
}

// mustResolveFile loads the bibliography with storage and looks up the entry
// and file type named on the command line.
func mustResolveFile(identifier, fileType string) (*config.Config, *bibliography.Bibliography, *entry.Entry, storage.FileType) {
	cfg := mustLoadConfig()
	if cfg.Storage.Kind != config.StorageFileSystem {
		exitWithError(ExitConfigError, "no file storage configured (set storage.kind: filesystem)")
	}

	var ft storage.FileType
	if fileType != "" {
		var err error
		if ft, err = storage.ParseFileType(fileType); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	bib := mustOpenBibliography(cfg)
	e, err := bib.Lookup(identifier)
	if err != nil {
		adapter.Close(bib.Adapter())
		exitWithError(ExitError, "%v", err)
	}
	return cfg, bib, e, ft
}

func runFilePut(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[2])
	if err != nil {
		exitWithError(ExitError, "reading file: %v", err)
	}
	if err := pdf.Validate(data); err != nil {
		exitWithError(ExitDataError, "%s: %v", args[2], err)
	}

	_, bib, e, ft := mustResolveFile(args[0], args[1])
	defer adapter.Close(bib.Adapter())

	doi, err := pdf.ExtractDOI(data)
	if err != nil {
		slog.Debug("DOI extraction failed", "path", args[2], "error", err)
	}
	warnDOIMismatch(e, doi)

	content, err := storage.Content(data)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := bib.Storage().PutFile(content, e, ft); err != nil {
		exitWithError(ExitError, "storing file: %v", err)
	}

	if humanOutput {
		outputHuman("Stored %s for %s (%d bytes)\n", ft, e.Identifier, len(data))
		return nil
	}
	return outputJSON(FileResponse{Identifier: e.Identifier, FileType: ft, Size: len(data), DOI: doi})
}

// warnDOIMismatch logs a warning when a PDF's DOI differs from the entry's.
func warnDOIMismatch(e *entry.Entry, doi string) bool {
	if doi == "" || e.DOI == nil || pdf.SameDOI(doi, *e.DOI) {
		return false
	}
	slog.Warn("PDF DOI does not match entry", "identifier", e.Identifier, "entry_doi", *e.DOI, "pdf_doi", doi)
	return true
}

func runFileGet(cmd *cobra.Command, args []string) error {
	_, bib, e, ft := mustResolveFile(args[0], args[1])
	defer adapter.Close(bib.Adapter())

	data, err := bib.Storage().GetFile(e, ft)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if fileOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(fileOutput, data, 0644); err != nil {
		exitWithError(ExitError, "writing %s: %v", fileOutput, err)
	}
	if humanOutput {
		outputHuman("Wrote %s (%d bytes)\n", fileOutput, len(data))
		return nil
	}
	return outputJSON(StatusResponse{Status: "written", Path: fileOutput})
}

func runFileExists(cmd *cobra.Command, args []string) error {
	fileType := ""
	if len(args) == 2 {
		fileType = args[1]
	}
	_, bib, e, ft := mustResolveFile(args[0], fileType)
	defer adapter.Close(bib.Adapter())

	files, err := bib.Files(e)
	if err != nil {
		exitWithError(ExitError, "checking files: %v", err)
	}
	if ft != "" {
		files = map[storage.FileType]bool{ft: files[ft]}
	}

	if humanOutput {
		for _, t := range storage.FileTypes() {
			if exists, ok := files[t]; ok {
				outputHuman("%-14s %t\n", t, exists)
			}
		}
		return nil
	}
	return outputJSON(ExistsResponse{Identifier: e.Identifier, Files: files})
}

func runFileOpen(cmd *cobra.Command, args []string) error {
	fileType := string(storage.Manuscript)
	if len(args) == 2 {
		fileType = args[1]
	}
	cfg, bib, e, ft := mustResolveFile(args[0], fileType)
	defer adapter.Close(bib.Adapter())

	path, err := storage.NewFileSystem(cfg.Storage.Path).Path(e, ft)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if err := pdf.NewOpener(cfg.PDFReader).Open(path); err != nil {
		exitWithError(ExitError, "opening %s: %v", ft, err)
	}

	if humanOutput {
		outputHuman("Opened %s\n", path)
		return nil
	}
	return outputJSON(OpenResponse{Status: "opened", Path: path, Reader: cfg.PDFReader})
}

