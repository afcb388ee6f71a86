// file: cmd/commands.go
// version: 1.0.0
// guid: 2d8e4f1a-6b3c-4a9d-8e7f-0c1b2a3d4e5f

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jdfalk/lending-library/internal/codec"
	"github.com/jdfalk/lending-library/internal/lending"
	"github.com/jdfalk/lending-library/internal/library"
	"github.com/spf13/cobra"
)

const suggestionLimit = 3

func (a *app) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> <author> <isbn> <total-copies>",
		Short: "Add a book to the catalog",
		Long: `Add a book with no copies on loan and save the catalog.

Fields are stored unescaped, so a comma in any of them will corrupt the
record when the catalog is next loaded.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}
			book, err := svc.AddBook(args[0], args[1], args[2], args[3])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q by %s (%d copies)\n", book.Title, book.Author, book.TotalCopies)
			return nil
		},
	}
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every book in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}
			return printBooks(cmd.OutOrStdout(), svc.ListAll(), "The catalog is empty.")
		},
	}
}

func (a *app) newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [keyword]",
		Short: "Find books whose title or author contains keyword",
		Long:  `Search is case-sensitive. Without a keyword every book matches.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}
			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}
			return printBooks(cmd.OutOrStdout(), svc.Search(keyword), fmt.Sprintf("No books match %q.", keyword))
		},
	}
}

func (a *app) newBorrowCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "borrow <title> <days>",
		Short: "Lend one copy of a book",
		Long: `Lend one copy of the first book with a free copy and the exact title.
The due date of the title is set to today plus days, replacing any due date
from earlier loans.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}
			res, err := svc.Borrow(args[0], args[1])
			if err != nil {
				return withSuggestions(cmd.ErrOrStderr(), svc, args[0], err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Borrowed %q, due %s (%d of %d copies on loan)\n",
				res.Book.Title, formatDate(res.DueDate), res.Book.BorrowedCopies, res.Book.TotalCopies)
			return finishLoanChange(out, svc, save)
		},
	}
	cmd.Flags().BoolVar(&save, "save", true, "save the catalog after the loan")
	return cmd
}

func (a *app) newReturnCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "return <title>",
		Short: "Take back one copy of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}
			res, err := svc.Return(args[0])
			if err != nil {
				return withSuggestions(cmd.ErrOrStderr(), svc, args[0], err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Returned %q (%d of %d copies on loan)\n",
				res.Book.Title, res.Book.BorrowedCopies, res.Book.TotalCopies)
			if res.Overdue {
				fmt.Fprintf(out, "Warning: this book was due on %s.\n", formatDate(res.DueDate))
			}
			return finishLoanChange(out, svc, save)
		},
	}
	cmd.Flags().BoolVar(&save, "save", true, "save the catalog after the return")
	return cmd
}

func (a *app) newOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List fully lent books past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}
			return printBooks(cmd.OutOrStdout(), svc.ListOverdue(), "No overdue books.")
		},
	}
}

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), svc.Stats())
			return nil
		},
	}
}

func (a *app) newImportCmd() *cobra.Command {
	var charset string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Append every record of another catalog file",
		Long: `Import reads a file in the catalog format and appends its records.
Nothing is added if any line is malformed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer f.Close()

			r, err := codec.NewCharsetReader(f, charset)
			if err != nil {
				return err
			}
			res, err := svc.Import(r, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d books, catalog now holds %d\n", res.Added, res.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&charset, "charset", "utf-8", "character set of the import file: "+strings.Join(codec.Charsets(), ", "))
	return cmd
}

func (a *app) newExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as yaml or json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return svc.Export(cmd.OutOrStdout(), format)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			if err := svc.Export(f, format); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

// finishLoanChange saves a loan change unless the caller opted out or the
// service already persisted it.
func finishLoanChange(out io.Writer, svc *library.Service, save bool) error {
	if !svc.UnsavedChanges() {
		return nil
	}
	if !save {
		fmt.Fprintln(out, "Note: the change was not saved to", svc.DataFile())
		return nil
	}
	if err := svc.Save(); err != nil {
		return fmt.Errorf("loan recorded but not saved: %w", err)
	}
	return nil
}

// withSuggestions prints "did you mean" hints for lookup failures and passes
// err through.
func withSuggestions(w io.Writer, svc *library.Service, title string, err error) error {
	if !errors.Is(err, lending.ErrUnavailable) && !errors.Is(err, lending.ErrNoActiveLoan) {
		return err
	}
	if hints := svc.Suggest(title, suggestionLimit); len(hints) > 0 {
		fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(hints, ", "))
	}
	return err
}
