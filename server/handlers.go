package server

import (
	"net/http"
	"strconv"

	"github.com/Luismorlan/instag/app_setting"
	"github.com/Luismorlan/instag/importer"
	"github.com/Luismorlan/instag/model"
	Logger "github.com/Luismorlan/instag/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ErrorBadRequest = 400
	ErrorNotFound   = 404
	ErrorConflict   = 409
	ErrorInternal   = 500
)

type StartBatchRequest struct {
	Method   string `json:"method" binding:"required"`
	Target   string `json:"target" binding:"required"`
	Limit    int    `json:"limit"`
	MaxPages int    `json:"max_pages"`
	Refresh  bool   `json:"refresh"`
}

type BatchResponse struct {
	model.BatchState
	Fraction float64 `json:"fraction"`
}

func newBatchResponse(state model.BatchState) BatchResponse {
	return BatchResponse{BatchState: state, Fraction: state.Fraction()}
}

// Handlers serves the admin API on top of an Importer.
type Handlers struct {
	importer *importer.Importer
	batches  *BatchRegistry

	defaultLimit    int
	defaultMaxPages int
}

func NewHandlers(imp *importer.Importer, setting app_setting.InstagAppSetting) *Handlers {
	return &Handlers{
		importer:        imp,
		batches:         NewBatchRegistry(),
		defaultLimit:    setting.ItemLimit(),
		defaultMaxPages: setting.HASHTAG_MAX_PAGES,
	}
}

func abortWithError(c *gin.Context, status int, code int, err error) {
	c.JSON(status, gin.H{
		"code": code,
		"msg":  err.Error(),
	})
	c.Abort()
}

func (h *Handlers) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// StartBatch fetches the post list of the requested feed and registers the
// batch. Items are processed by StepBatch.
func (h *Handlers) StartBatch(c *gin.Context) {
	var req StartBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, ErrorBadRequest, err)
		return
	}
	kind, err := model.ParseFetchKind(req.Method)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, ErrorBadRequest, err)
		return
	}

	limit := h.defaultLimit
	if req.Limit != 0 {
		limit = app_setting.ClampItemLimit(req.Limit)
	}
	maxPages := req.MaxPages
	if kind == model.FetchKindHashtag && maxPages <= 0 {
		maxPages = h.defaultMaxPages
	}

	state, err := h.importer.Runner().Start(c.Request.Context(), importer.BatchRequest{
		Kind:     kind,
		Target:   req.Target,
		Limit:    limit,
		MaxPages: maxPages,
		Refresh:  req.Refresh,
	})
	if err != nil {
		abortWithError(c, http.StatusBadRequest, ErrorBadRequest, err)
		return
	}
	h.batches.Put(state)
	Logger.Log.WithFields(logrus.Fields{"batch": state.Id, "status": state.Status}).Info("batch registered")
	c.JSON(http.StatusCreated, newBatchResponse(state))
}

func (h *Handlers) GetBatch(c *gin.Context) {
	state, err := h.batches.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, ErrorNotFound, err)
		return
	}
	c.JSON(http.StatusOK, newBatchResponse(state))
}

// StepBatch processes the next chunk of a registered batch.
func (h *Handlers) StepBatch(c *gin.Context) {
	state, err := h.batches.Checkout(c.Param("id"))
	if errors.Is(err, ErrBatchBusy) {
		abortWithError(c, http.StatusConflict, ErrorConflict, err)
		return
	}
	if err != nil {
		abortWithError(c, http.StatusNotFound, ErrorNotFound, err)
		return
	}

	next, err := h.importer.Runner().Step(c.Request.Context(), state)
	h.batches.Return(next)
	if err != nil {
		Logger.Log.WithFields(logrus.Fields{"batch": state.Id}).Errorln("fail to step batch:", err)
		abortWithError(c, http.StatusInternalServerError, ErrorInternal, err)
		return
	}
	c.JSON(http.StatusOK, newBatchResponse(next))
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", name)
	}
	return n, nil
}

func (h *Handlers) ListPosts(c *gin.Context) {
	page, err := queryInt(c, "page", 0)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, ErrorBadRequest, err)
		return
	}
	pageSize, err := queryInt(c, "page_size", importer.DefaultPageSize)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, ErrorBadRequest, err)
		return
	}
	result, err := h.importer.ListPosts(c.Request.Context(), page, pageSize)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, ErrorInternal, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) DeleteAllPosts(c *gin.Context) {
	deleted, err := h.importer.DeleteAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, ErrorInternal, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deleted": deleted,
	})
}
