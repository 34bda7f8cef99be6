package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/collate/internal/api"
	"github.com/jackzampolin/collate/internal/store"
	"github.com/jackzampolin/collate/internal/svcctx"
)

// ListRunsResponse is the response for listing validation runs.
type ListRunsResponse struct {
	Runs  []*store.Run `json:"runs"`
	Total int          `json:"total"`
}

// ListRunsEndpoint handles GET /api/books/{book_id}/runs.
type ListRunsEndpoint struct{}

func (e *ListRunsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book_id}/runs", e.handler
}

func (e *ListRunsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List validation runs
//	@Description	List validation runs for a book, newest first
//	@Tags			books
//	@Produce		json
//	@Param			book_id	path		string	true	"Book ID"
//	@Success		200		{object}	ListRunsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/books/{book_id}/runs [get]
func (e *ListRunsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("book_id")
	if bookID == "" {
		writeError(w, http.StatusBadRequest, "book_id is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "staging store not initialized")
		return
	}

	book, err := st.GetBook(r.Context(), bookID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	runs, err := st.ListRuns(r.Context(), bookID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ListRunsResponse{Runs: runs, Total: len(runs)})
}

func (e *ListRunsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "runs <book-id>",
		Short: "List validation runs for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp ListRunsResponse
			if err := client.Get(ctx, "/api/books/"+args[0]+"/runs", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
