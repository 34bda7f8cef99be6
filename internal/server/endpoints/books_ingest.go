package endpoints

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/collate/internal/api"
	"github.com/jackzampolin/collate/internal/ingest"
	"github.com/jackzampolin/collate/internal/report"
	"github.com/jackzampolin/collate/internal/svcctx"
)

// IngestResponse is the response for a successful ingest.
type IngestResponse struct {
	BookID string             `json:"book_id"`
	Title  string             `json:"title"`
	Author string             `json:"author,omitempty"`
	Pages  int                `json:"pages"`
	Run    *report.RunSummary `json:"run,omitempty"`
}

// IngestEndpoint handles POST /api/books/ingest.
// The request body is the observation document itself.
type IngestEndpoint struct{}

func (e *IngestEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/ingest", e.handler
}

func (e *IngestEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Ingest an observation document
//	@Description	Stage an observation document as a new book. When auto-validation is enabled the book is validated immediately and the run summary is included in the response.
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			title	query		string	false	"Book title (overrides the document's)"
//	@Param			author	query		string	false	"Book author (overrides the document's)"
//	@Success		201		{object}	IngestResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/books/ingest [post]
func (e *IngestEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 32<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	doc, err := ingest.ParseDocument(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "staging store not initialized")
		return
	}

	homeDir := svcctx.HomeFrom(r.Context())
	logger := svcctx.LoggerFrom(r.Context())

	res, err := ingest.StageDocument(r.Context(), st, doc, ingest.Request{
		Title:  r.URL.Query().Get("title"),
		Author: r.URL.Query().Get("author"),
		Logger: logger,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := IngestResponse{
		BookID: res.BookID,
		Title:  res.Title,
		Author: res.Author,
		Pages:  res.PageCount,
	}

	// Validate immediately when configured to, same as the inbox watcher.
	if cfgMgr := svcctx.ConfigMgrFrom(r.Context()); cfgMgr != nil && cfgMgr.Get().Ingest.AutoValidate && homeDir != nil {
		summary, err := report.Run(r.Context(), st, homeDir, res.BookID, logger)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("staged %s but validation failed: %v", res.BookID, err))
			return
		}
		resp.Run = summary
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (e *IngestEndpoint) Command(getServerURL func() string) *cobra.Command {
	var title, author string
	cmd := &cobra.Command{
		Use:   "ingest <document.json>",
		Short: "Ingest an observation document via the server",
		Long: `Ingest an observation document as a new staged book.

The document is a JSON file listing every scanned page in order with the
page number string OCR read from it, if any. Title is derived from the
document or the filename if not provided.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}

			// Reject obviously broken documents before bothering the server.
			if _, err := ingest.ParseDocument(data); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			path := "/api/books/ingest"
			query := url.Values{}
			if title != "" {
				query.Set("title", title)
			}
			if author != "" {
				query.Set("author", author)
			}
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			client := api.NewClient(getServerURL())
			var resp IngestResponse
			if err := client.Post(ctx, path, json.RawMessage(data), &resp); err != nil {
				return err
			}

			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Book title (derived from the document if not provided)")
	cmd.Flags().StringVar(&author, "author", "", "Book author")
	return cmd
}
