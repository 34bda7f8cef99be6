package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/collate/internal/api"
	"github.com/jackzampolin/collate/internal/report"
	"github.com/jackzampolin/collate/internal/svcctx"
)

// ValidateBookEndpoint handles POST /api/books/{id}/validate.
type ValidateBookEndpoint struct{}

func (e *ValidateBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/{id}/validate", e.handler
}

func (e *ValidateBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Validate a book
//	@Description	Run the page sequence validator over a staged book and persist the cluster report. With rebuild=true the report is reassembled from the stored sequence columns instead of re-running the validator.
//	@Tags			books
//	@Produce		json
//	@Param			id		path		string	true	"Book ID"
//	@Param			rebuild	query		bool	false	"Rebuild the report from stored sequence columns"
//	@Success		200		{object}	report.RunSummary
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/books/{id}/validate [post]
func (e *ValidateBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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

	homeDir := svcctx.HomeFrom(r.Context())
	if homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}

	logger := svcctx.LoggerFrom(r.Context())

	var summary *report.RunSummary
	var err error
	if r.URL.Query().Get("rebuild") == "true" {
		summary, err = report.Rebuild(r.Context(), st, homeDir, id, logger)
	} else {
		summary, err = report.Run(r.Context(), st, homeDir, id, logger)
	}
	if err != nil {
		switch {
		case errors.Is(err, report.ErrBookNotFound):
			writeError(w, http.StatusNotFound, "book not found")
		case errors.Is(err, report.ErrNotValidated):
			writeError(w, http.StatusConflict, "book not validated")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (e *ValidateBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "validate <book-id>",
		Short: "Run the sequence validator over a staged book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := "/api/books/" + args[0] + "/validate"
			if rebuild {
				path += "?rebuild=true"
			}

			client := api.NewClient(getServerURL())
			var summary report.RunSummary
			if err := client.Post(ctx, path, nil, &summary); err != nil {
				return err
			}
			return api.Output(summary)
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Rebuild the report from stored sequence columns")
	return cmd
}
