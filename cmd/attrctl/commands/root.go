package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dukerupert/addressattr/internal"
	"github.com/dukerupert/addressattr/internal/address"
	"github.com/dukerupert/addressattr/internal/catalog"
	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/dukerupert/addressattr/internal/localization"
	"github.com/spf13/cobra"
)

// RootCmd is the attrctl entry point.
var RootCmd = &cobra.Command{
	Use:   "attrctl",
	Short: "Inspect and edit stored address attribute documents",
	Long: `attrctl - Inspect and edit stored address attribute documents.

Documents are read from --doc or stdin and checked against a YAML catalog
of attribute definitions.

Available commands:
  ids       - List the attribute IDs selected in a document
  values    - List the raw values stored for one attribute
  add       - Append a value to an attribute
  remove    - Remove an attribute
  validate  - Report required attributes without a value
  format    - Render a document as "Name: value" lines
  seed      - Load the catalog into Postgres

Examples:
  attrctl --catalog catalog.yaml ids < address.xml
  attrctl --catalog catalog.yaml add --id 2 --value 42 --doc ""
  attrctl --catalog catalog.yaml validate --doc "$(cat address.xml)"`,
	SilenceUsage: true,
}

var (
	catalogFlag   string
	resourcesFlag string
	docFlag       string
	discardFlag   bool
	logLevelFlag  string
)

// errCorrupt is returned after partial output for a malformed document so
// the exit status is non-zero.
var errCorrupt = errors.New("attributes document is malformed")

func init() {
	RootCmd.PersistentFlags().StringVar(&catalogFlag, "catalog", "catalog.yaml", "YAML catalog of attribute definitions")
	RootCmd.PersistentFlags().StringVar(&resourcesFlag, "resources", "", "Optional resource file of localized strings")
	RootCmd.PersistentFlags().StringVar(&docFlag, "doc", "", "Attributes document (read from stdin when not set)")
	RootCmd.PersistentFlags().BoolVar(&discardFlag, "discard-on-write-failure", false, "Print an empty document when a rewrite fails")
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn", "Log level (debug, info, warn, error)")

	RootCmd.AddCommand(IDsCmd)
	RootCmd.AddCommand(ValuesCmd)
	RootCmd.AddCommand(AddCmd)
	RootCmd.AddCommand(RemoveCmd)
	RootCmd.AddCommand(ValidateCmd)
	RootCmd.AddCommand(FormatCmd)
	RootCmd.AddCommand(SeedCmd)
}

// env bundles what every document command needs.
type env struct {
	catalog *catalog.Memory
	parser  *address.AttributeParser
}

func newEnv(cmd *cobra.Command) (*env, error) {
	cat, err := catalog.LoadFile(catalogFlag)
	if err != nil {
		return nil, err
	}

	resources, err := localization.Load(resourcesFlag)
	if err != nil {
		return nil, err
	}

	logger := internal.NewLogger(cmd.ErrOrStderr(), "dev", logLevelFlag)
	parser := address.NewAttributeParser(cat, resources, address.ParserOptions{
		DiscardOnWriteFailure: discardFlag,
		Logger:                &logger,
	})

	return &env{catalog: cat, parser: parser}, nil
}

// readDocument returns --doc when set, otherwise all of stdin.
func readDocument(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("doc") {
		return docFlag, nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// partial maps a codec error to the command result after output has been
// written: corrupt documents exit non-zero, other errors pass through.
func partial(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsCode(err, domain.EINVALID) {
		return errCorrupt
	}
	return err
}
