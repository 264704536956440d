package commands

import (
	"fmt"

	"github.com/dukerupert/addressattr/internal/address"
	"github.com/spf13/cobra"
)

// IDsCmd lists the selected attribute IDs
var IDsCmd = &cobra.Command{
	Use:   "ids",
	Short: "List the attribute IDs selected in a document",
	Args:  cobra.NoArgs,
	RunE:  runIDs,
}

// ValuesCmd lists the raw values of one attribute
var ValuesCmd = &cobra.Command{
	Use:   "values",
	Short: "List the raw values stored for one attribute",
	Args:  cobra.NoArgs,
	RunE:  runValues,
}

// AddCmd appends a value to an attribute
var AddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a value to an attribute and print the new document",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

// RemoveCmd removes an attribute
var RemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove an attribute and print the new document",
	Args:  cobra.NoArgs,
	RunE:  runRemove,
}

// ValidateCmd reports missing required attributes
var ValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Report required attributes without a value",
	Long:  "Print one warning per required attribute that has no value. Exits non-zero when any warning is printed.",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

// FormatCmd renders a document for display
var FormatCmd = &cobra.Command{
	Use:   "format",
	Short: `Render a document as "Name: value" lines`,
	Args:  cobra.NoArgs,
	RunE:  runFormat,
}

var (
	idFlag        int
	valueFlag     string
	separatorFlag string
	htmlFlag      bool
)

func init() {
	ValuesCmd.Flags().IntVar(&idFlag, "id", 0, "Attribute ID")
	_ = ValuesCmd.MarkFlagRequired("id")

	AddCmd.Flags().IntVar(&idFlag, "id", 0, "Attribute ID")
	AddCmd.Flags().StringVar(&valueFlag, "value", "", "Value to append (option ID for list attributes)")
	_ = AddCmd.MarkFlagRequired("id")

	RemoveCmd.Flags().IntVar(&idFlag, "id", 0, "Attribute ID")
	_ = RemoveCmd.MarkFlagRequired("id")

	FormatCmd.Flags().StringVar(&separatorFlag, "separator", "\n", "Line separator")
	FormatCmd.Flags().BoolVar(&htmlFlag, "html", false, "HTML-encode names and values")
}

func runIDs(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd)
	if err != nil {
		return err
	}

	ids, err := e.parser.ParseAttributeIDs(doc)
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return partial(err)
}

func runValues(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd)
	if err != nil {
		return err
	}

	values, err := e.parser.ParseValues(doc, idFlag)
	for _, v := range values {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return partial(err)
}

func runAdd(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd)
	if err != nil {
		return err
	}

	attr, err := e.catalog.GetAttributeByID(cmd.Context(), idFlag)
	if err != nil {
		return err
	}

	out, err := e.parser.AddAttribute(doc, *attr, valueFlag)
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func runRemove(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd)
	if err != nil {
		return err
	}

	out, err := e.parser.RemoveAttribute(doc, idFlag)
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func runValidate(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd)
	if err != nil {
		return err
	}

	warnings, err := e.parser.GetAttributeWarnings(cmd.Context(), doc)
	for _, w := range warnings {
		fmt.Fprintln(cmd.OutOrStdout(), w)
	}
	if err != nil {
		return partial(err)
	}
	if len(warnings) > 0 {
		return fmt.Errorf("%d required attribute(s) missing", len(warnings))
	}
	return nil
}

func runFormat(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd)
	if err != nil {
		return err
	}

	out, err := address.NewAttributeFormatter(e.parser).FormatAttributes(cmd.Context(), doc, address.FormatOptions{
		Separator:  separatorFlag,
		HTMLEncode: htmlFlag,
	})
	if out != "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	return partial(err)
}
