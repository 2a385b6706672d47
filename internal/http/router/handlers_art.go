package router

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yxshee/marfa-gallery/internal/auditlog"
	"github.com/yxshee/marfa-gallery/internal/gallery"
	"github.com/yxshee/marfa-gallery/internal/platform/identifier"
)

type artSubmitRequest struct {
	MetadataURL        string `json:"ipfs_metadata_url"`
	IdentificationWord string `json:"identification_word"`
}

type artMintRequest struct {
	WalletAddress   string `json:"wallet_address"`
	TransactionHash string `json:"transaction_hash"`
	TokenID         *int64 `json:"token_id"`
	MintCost        string `json:"mint_cost"`
}

type paginationResponse struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

type listFiltersResponse struct {
	MintedOnly bool   `json:"minted_only"`
	Search     string `json:"search"`
	Random     bool   `json:"random"`
}

func (a *api) handleArtList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "offset must be an integer")
		return
	}

	params := gallery.ListParams{
		Limit:      limit,
		Offset:     offset,
		MintedOnly: queryBool(r, "minted_only"),
		Search:     r.URL.Query().Get("search"),
		Random:     queryBool(r, "random"),
	}
	result, err := a.gallery.List(r.Context(), params)
	if err != nil {
		a.writeGalleryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"art_pieces": result.Items,
		"pagination": paginationResponse{
			Total:   result.Total,
			Limit:   result.Limit,
			Offset:  result.Offset,
			HasMore: result.HasMore,
		},
		"filters": listFiltersResponse{
			MintedOnly: params.MintedOnly,
			Search:     params.Search,
			Random:     params.Random,
		},
	})
}

func (a *api) handleArtSubmit(w http.ResponseWriter, r *http.Request) {
	var req artSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	piece, err := a.gallery.Submit(r.Context(), gallery.SubmitInput{
		MetadataURL:        req.MetadataURL,
		IdentificationWord: req.IdentificationWord,
	})
	if err != nil {
		a.writeGalleryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"art_piece": piece,
		"mint_url":  "/art/" + piece.Identifier,
	})
}

func (a *api) handleArtRecentUnminted(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "limit must be an integer")
		return
	}
	items, err := a.gallery.RecentUnminted(r.Context(), limit)
	if err != nil {
		a.writeGalleryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"art_pieces": items})
}

func (a *api) handleArtDetail(w http.ResponseWriter, r *http.Request) {
	piece, err := a.gallery.Get(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		a.writeGalleryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"art_piece": piece})
}

func (a *api) handleArtMint(w http.ResponseWriter, r *http.Request) {
	var req artMintRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	receipt, err := a.gallery.Mint(r.Context(), chi.URLParam(r, "identifier"), gallery.MintInput{
		WalletAddress:   req.WalletAddress,
		TransactionHash: req.TransactionHash,
		TokenID:         req.TokenID,
		MintCost:        req.MintCost,
	})
	if err != nil {
		a.writeGalleryError(w, r, err)
		return
	}
	a.recordAudit(auditlog.RecordInput{
		ActorWallet: *receipt.ArtPiece.MintedBy,
		Action:      auditlog.ActionArtMinted,
		TargetType:  "art_piece",
		TargetID:    receipt.ArtPiece.Identifier,
		Metadata: map[string]interface{}{
			"transaction_hash": receipt.TransactionHash,
			"token_id":         receipt.TokenID,
		},
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "art piece minted",
		"data":    receipt,
	})
}

func (a *api) handleTopCollectors(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "limit must be an integer")
		return
	}
	collectors, err := a.gallery.TopCollectors(r.Context(), limit)
	if err != nil {
		a.writeGalleryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"collectors": collectors})
}

func (a *api) writeGalleryError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := a.galleryErrorResponse(r, err)
	writeJSON(w, status, body)
}

// galleryErrorResponse maps a gallery error onto a status and error body.
func (a *api) galleryErrorResponse(r *http.Request, err error) (int, errorResponse) {
	var conflict *gallery.ConflictError
	var missing *gallery.MissingFieldsError

	switch {
	case errors.As(err, &conflict):
		body := errorResponse{Error: conflict.Err.Error(), Code: "DUPLICATE_IDENTIFICATION_WORD"}
		if errors.Is(err, gallery.ErrDuplicateArtwork) {
			body.Code = "DUPLICATE_ARTWORK"
		}
		if conflict.Existing.ID != 0 {
			existingID := conflict.Existing.ID
			body.ExistingID = &existingID
			body.ExistingTitle = conflict.Existing.Title
		}
		return http.StatusConflict, body
	case errors.As(err, &missing):
		return http.StatusBadRequest, errorResponse{
			Error:          "metadata must include required fields: name, image",
			Code:           "MISSING_REQUIRED_FIELDS",
			ReceivedFields: missing.Received,
		}
	case errors.Is(err, gallery.ErrMissingMetadataURL):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "MISSING_IPFS_URL"}
	case errors.Is(err, gallery.ErrInvalidMetadataURL):
		return http.StatusBadRequest, errorResponse{Error: "ipfs url must start with ipfs:// or contain ipfs", Code: "INVALID_IPFS_FORMAT"}
	case errors.Is(err, gallery.ErrMetadataUnavailable):
		return http.StatusBadRequest, errorResponse{Error: "metadata could not be fetched from ipfs", Code: "IPFS_FETCH_FAILED"}
	case errors.Is(err, gallery.ErrInvalidIdentifier):
		return http.StatusBadRequest, errorResponse{Error: "invalid art piece identifier format", Code: "INVALID_IDENTIFIER"}
	case errors.Is(err, gallery.ErrInvalidWallet):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "INVALID_WALLET"}
	case errors.Is(err, gallery.ErrInvalidTransaction):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "INVALID_TRANSACTION"}
	case errors.Is(err, gallery.ErrArtPieceNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Code: "NOT_FOUND"}
	case errors.Is(err, gallery.ErrAlreadyMinted):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "ALREADY_MINTED"}
	case errors.Is(err, gallery.ErrDuplicateIdentifier):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "DUPLICATE_IDENTIFICATION_WORD"}
	case errors.Is(err, identifier.ErrExhaustedCapacity):
		return http.StatusServiceUnavailable, errorResponse{Error: "no unused identifiers remain", Code: "IDENTIFIERS_EXHAUSTED"}
	case errors.Is(err, gallery.ErrIdentifierContention):
		return http.StatusServiceUnavailable, errorResponse{Error: "could not reserve an identifier, please retry", Code: "IDENTIFIER_CONTENTION"}
	default:
		a.log.WithError(err).WithField("path", r.URL.Path).Error("gallery request failed")
		return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "SERVER_ERROR"}
	}
}
