package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YashPS24/CAQMS/internal/application"
	"github.com/YashPS24/CAQMS/internal/washspec"
	"github.com/YashPS24/CAQMS/pkg/api"
	apperrors "github.com/YashPS24/CAQMS/pkg/errors"
	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/YashPS24/CAQMS/pkg/middleware"
)

func ingestSheetHandler(service *application.WashSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req IngestRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"sheet.source": "json",
			"sheet.rows":   len(req.Rows),
		})

		result, err := service.IngestSheet(c.Request.Context(), application.IngestCommand{
			Source: "json",
			Cells:  washspec.CellsFromValues(req.Rows),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func ingestSheetFileHandler(service *application.WashSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		header, err := c.FormFile("file")
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				responder.RespondWithAppError(apperrors.NewAppError("PAYLOAD_TOO_LARGE", "request body is too large", http.StatusRequestEntityTooLarge))
				return
			}
			responder.RespondBadRequest(`A spreadsheet must be uploaded in the "file" field.`)
			return
		}

		file, err := header.Open()
		if err != nil {
			responder.RespondWithError(apperrors.ErrBadRequest("Could not open the uploaded file.").Wrap(err))
			return
		}
		defer file.Close()

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"sheet.filename": header.Filename,
			"sheet.size":     header.Size,
		})

		result, err := service.IngestFile(c.Request.Context(), application.IngestFileCommand{
			Filename:  header.Filename,
			SheetName: c.PostForm("sheet"),
			Content:   file,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func saveWashingSpecsHandler(service *application.WashSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req SaveSpecsRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.no":        req.MoNo,
			"colors.selected": len(req.SelectedColors),
			"specs.sheets":    len(req.WashingSpecsData),
		})

		result, err := service.SaveSpecs(c.Request.Context(), application.SaveSpecsCommand{
			OrderNo:          req.MoNo,
			WashingSpecsData: req.WashingSpecsData,
			SelectedColors:   req.SelectedColors,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		if result.Unchanged {
			middleware.AddSpanEvent(c, "specs_unchanged", nil)
		}

		c.JSON(http.StatusOK, result)
	}
}

func listUploadedSpecsHandler(service *application.WashSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		page := api.ParsePagination(c)
		query := application.ListUploadedQuery{
			Page:    page.Page,
			Limit:   page.GetLimit(),
			OrderNo: c.Query("moNo"),
		}

		result, err := service.ListUploaded(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func searchOrdersHandler(service *application.WashSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		result, err := service.SearchOrders(c.Request.Context(), c.Query("search"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func orderColorsHandler(service *application.WashSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		orderNo := c.Param("orderNo")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.no": orderNo,
		})

		result, err := service.OrderColors(c.Request.Context(), orderNo)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func filterOptionsHandler(service *application.WashSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		query := application.FilterOptionsQuery{
			Factory:   c.Query("factory"),
			OrderNo:   c.Query("mono"),
			CustStyle: c.Query("custStyle"),
			Buyer:     c.Query("buyer"),
			Mode:      c.Query("mode"),
			Country:   c.Query("country"),
			Origin:    c.Query("origin"),
		}

		result, err := service.FilterOptions(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
