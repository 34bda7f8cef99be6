package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/collate/internal/api"
	"github.com/jackzampolin/collate/internal/pageseq"
	"github.com/jackzampolin/collate/internal/svcctx"
)

// GetReportEndpoint handles GET /api/books/{id}/report.
type GetReportEndpoint struct{}

func (e *GetReportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{id}/report", e.handler
}

func (e *GetReportEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get cluster report
//	@Description	Get the cluster report from the latest validation run of a book
//	@Tags			books
//	@Produce		json
//	@Param			id	path		string	true	"Book ID"
//	@Success		200	{object}	pageseq.ClusterReport
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/books/{id}/report [get]
func (e *GetReportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "book id is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "staging store not initialized")
		return
	}

	book, err := st.GetBook(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	run, err := st.LatestRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "no validation report for book")
		return
	}

	// The stored report is already a JSON document; serve it as-is.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(run.ReportJSON))
}

func (e *GetReportEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "report <book-id>",
		Short: "Get the latest cluster report for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var rep pageseq.ClusterReport
			if err := client.Get(ctx, "/api/books/"+args[0]+"/report", &rep); err != nil {
				return err
			}
			return api.Output(rep)
		},
	}
}
