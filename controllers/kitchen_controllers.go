package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/kds"
	"github.com/yeremiapane/club-pos/middlewares"
	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

type KitchenController struct {
	kitchen *services.KitchenService
	hub     *kds.Hub
}

func NewKitchenController(kitchen *services.KitchenService, hub *kds.Hub) *KitchenController {
	return &KitchenController{kitchen: kitchen, hub: hub}
}

func (kc *KitchenController) Queue(c *gin.Context) {
	q, err := kc.kitchen.Queue(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen queue", q)
}

func (kc *KitchenController) StartPreparing(c *gin.Context) {
	kc.transition(c, kc.kitchen.StartPreparing, "Order is being prepared")
}

func (kc *KitchenController) Complete(c *gin.Context) {
	kc.transition(c, kc.kitchen.CompleteOrder, "Order completed")
}

type orderTransition func(ctx context.Context, actor services.Actor, orderID uint) (*models.Order, error)

func (kc *KitchenController) transition(c *gin.Context, fn orderTransition, message string) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := fn(c.Request.Context(), middlewares.ActorFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	kc.hub.OrderStatus(*order)
	utils.RespondJSON(c, http.StatusOK, message, order)
}
