package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/collate/internal/api"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Manage staged books",
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staged books",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := getHome()
		if err != nil {
			return err
		}
		st, cleanup, err := openStoreRead(h)
		if err != nil {
			return err
		}
		defer cleanup()

		books, err := st.ListBooks(ctx)
		if err != nil {
			return err
		}

		if cmd.Root().PersistentFlags().Changed("output") || !isTerminal(os.Stdout) {
			return api.Output(books)
		}

		if len(books) == 0 {
			fmt.Println("No books staged.")
			return nil
		}
		rows := make([][]string, 0, len(books))
		for _, b := range books {
			rows = append(rows, []string{
				b.ID,
				b.Title,
				b.Author,
				strconv.Itoa(b.PageCount),
				string(b.Status),
				b.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		fmt.Println(renderTable(
			[]string{"ID", "Title", "Author", "Pages", "Status", "Created"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		))
		return nil
	},
}

var booksDeleteCmd = &cobra.Command{
	Use:   "delete <book-id>",
	Short: "Delete a staged book",
	Long: `Delete a staged book, its observations, and any report files
written for it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bookID := args[0]

		h, err := getHome()
		if err != nil {
			return err
		}
		st, cleanup, err := openStore(h)
		if err != nil {
			return err
		}
		defer cleanup()

		deleted, err := st.DeleteBook(ctx, bookID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("book %s not found", bookID)
		}

		if err := os.RemoveAll(h.BookReportDir(bookID)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove report files: %v\n", err)
		}

		fmt.Println("Book deleted successfully")
		return nil
	},
}

func init() {
	booksCmd.AddCommand(booksListCmd)
	booksCmd.AddCommand(booksDeleteCmd)

	rootCmd.AddCommand(booksCmd)
}
