package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YashPS24/CAQMS/internal/application"
	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/YashPS24/CAQMS/pkg/middleware"
)

func saveBuyerSpecTemplateHandler(service *application.BuyerSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req SaveTemplateRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.no":       req.MoNo,
			"template.stage": req.Stage,
			"template.sizes": len(req.SpecData),
		})

		result, err := service.SaveTemplate(c.Request.Context(), application.SaveTemplateCommand{
			MoNo:     req.MoNo,
			Buyer:    req.Buyer,
			Stage:    req.Stage,
			SpecData: req.SpecData,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

func updateBuyerSpecTemplateHandler(service *application.BuyerSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req UpdateTemplateRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		moNo := c.Param("moNo")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.no":       moNo,
			"template.sizes": len(req.SpecData),
		})

		result, err := service.UpdateTemplate(c.Request.Context(), application.UpdateTemplateCommand{
			MoNo:     moNo,
			Stage:    req.Stage,
			SpecData: req.SpecData,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func buyerSpecMoOptionsHandler(service *application.BuyerSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		result, err := service.MoOptions(c.Request.Context())
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func editSpecsDataHandler(service *application.BuyerSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		result, err := service.EditData(c.Request.Context(), c.Param("moNo"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func buyerSpecOrderDetailsHandler(service *application.BuyerSpecService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		moNo := c.Param("mono")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.no": moNo,
		})

		result, err := service.OrderDetails(c.Request.Context(), moNo)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
