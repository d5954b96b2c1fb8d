package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"trelliq-api/domain"
	"trelliq-api/report"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, engine *report.Engine, auth Authenticator, deduper Deduper, logger *log.Logger) {
	e.POST("/api/boards", postBoards(store, auth))
	e.POST("/api/reports", postReports(store, engine, auth, logger))
	e.GET("/api/groups", getGroups(engine, auth))
	e.GET("/api/settings", getSettings(store, auth))
	e.POST("/api/exports", postExports(store, auth, deduper))
	e.GET("/healthz", healthz(store))

	initExportDispatcher(store, deduper, logger)
}

func healthz(_ Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func postBoards(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		data, err := io.ReadAll(io.LimitReader(c.Request().Body, postBoardMaxSize))
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if errs := domain.ValidateBoardExport(data); len(errs) > 0 {
			return c.JSON(http.StatusBadRequest, validationErrorResponse{Errors: errs})
		}

		var board domain.Board
		if err := sonic.Unmarshal(data, &board); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if board.ID == "" {
			board.ID = uuid.NewString()
		}

		if err := store.SaveBoard(ctx, userID, board); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to store board")
		}

		return c.JSON(http.StatusCreated, boardResponse{
			BoardID: board.ID,
			Name:    board.Name,
			Cards:   len(board.Cards),
			Lists:   len(board.Lists),
			Members: len(board.Members),
		})
	}
}

func postReports(store Storage, engine *report.Engine, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newReportRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		var req reportRequest
		dec := sonic.ConfigStd.NewDecoder(c.Request().Body)
		dec.DisallowUnknownFields()
		if decodeErr := dec.Decode(&req); decodeErr != nil {
			metrics.SetErrorStage("invalid_body")
			err = c.String(http.StatusBadRequest, "invalid body")
			return err
		}
		if req.BoardID == "" {
			metrics.SetErrorStage("missing_board_id")
			err = c.String(http.StatusBadRequest, "boardId is required")
			return err
		}
		start, parseErr := time.Parse(dateLayout, req.Start)
		if parseErr != nil {
			metrics.SetErrorStage("invalid_start")
			err = c.String(http.StatusBadRequest, "invalid start date")
			return err
		}
		end, parseErr := time.Parse(dateLayout, req.End)
		if parseErr != nil {
			metrics.SetErrorStage("invalid_end")
			err = c.String(http.StatusBadRequest, "invalid end date")
			return err
		}
		if end.Before(start) {
			metrics.SetErrorStage("inverted_window")
			err = c.String(http.StatusBadRequest, "end date precedes start date")
			return err
		}

		fetchStart := time.Now()
		board, fetchErr := store.FetchBoard(ctx, userID, req.BoardID)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			var notFound BoardNotFoundError
			if errors.As(fetchErr, &notFound) {
				metrics.SetErrorStage("board_not_found")
				err = c.String(http.StatusNotFound, "board not found")
				return err
			}
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.String(http.StatusInternalServerError, fetchErr.Error())
			return err
		}

		buildStart := time.Now()
		result := engine.BuildReport(board, report.NewWindow(start, end), req.Groups)
		metrics.ObserveBuild(time.Since(buildStart))
		metrics.SetRowsGenerated(len(result.Rows))
		metrics.SetUniqueTasks(result.Summary.TotalTasks)
		metrics.SetCollaborators(len(result.Collaborators))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, result)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getGroups(engine *report.Engine, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization")); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		return c.JSON(http.StatusOK, engine.Registry().Groups())
	}
}

func getSettings(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		settings, err := store.FetchSettings(ctx, userID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, settings)
	}
}

func postExports(store Storage, auth Authenticator, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		lr := io.LimitReader(c.Request().Body, postExportMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()

		jobs := make([]domain.ExportJob, 0, 4)
		if err := dec.Decode(&jobs); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		for i := range jobs {
			if jobs[i].BoardID == "" {
				return c.String(http.StatusBadRequest, "boardId is required")
			}
			if jobs[i].Format == "" {
				jobs[i].Format = "csv"
			}
		}

		keys := finalizeExports(jobs)

		added, addErr := deduper.AddMany(ctx, userID, keys)
		if addErr != nil {
			rollbackKeys(ctx, deduper, userID, keys, added)
			c.Logger().Errorf("export dedupe failed: %v", addErr)
			return c.String(http.StatusInternalServerError, "failed to record export keys")
		}

		fresh := make([]domain.ExportJob, 0, len(jobs))
		freshKeys := make([]string, 0, len(keys))
		for i, ok := range added {
			if ok {
				fresh = append(fresh, jobs[i])
				freshKeys = append(freshKeys, keys[i])
			}
		}
		if len(fresh) == 0 {
			return c.JSON(http.StatusAccepted, postExportResponse{IdempotencyKeys: keys})
		}

		job := exportBatch{
			userID: userID,
			jobs:   fresh,
			added:  freshKeys,
		}

		if tryEnqueueExport(job) {
			return c.JSON(http.StatusAccepted, postExportResponse{IdempotencyKeys: keys})
		}

		if globalLog != nil {
			globalLog.Warn("export buffer saturated; processing inline")
		}

		enqueueCtx, cancel := newEnqueueContext()
		enqueueErr := store.EnqueueExports(enqueueCtx, userID, job.jobs)
		cancel()

		if enqueueErr != nil {
			for _, k := range job.added {
				if rerr := deduper.Remove(ctx, userID, k); rerr != nil {
					c.Logger().Errorf("dedupe rollback failed: %v, key: %s", rerr, k)
				}
			}
			c.Logger().Errorf("enqueue inline failed: %v", enqueueErr)
			return c.String(http.StatusInternalServerError, "failed to enqueue exports")
		}

		return c.JSON(http.StatusAccepted, postExportResponse{IdempotencyKeys: keys})
	}
}

func rollbackKeys(ctx context.Context, deduper Deduper, userID string, keys []string, added []bool) {
	for i, ok := range added {
		if ok && i < len(keys) {
			_ = deduper.Remove(ctx, userID, keys[i])
		}
	}
}
