package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Vantorrr/influenta-backend/internal/realtime"
	"github.com/Vantorrr/influenta-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// Policy minimum for a proposed budget, enforced at the boundary.
const minProposedBudget = 100.0

// OfferHandler serves the offer negotiation endpoints. It holds the
// realtime gateway so an accepted offer can announce its new chat.
type OfferHandler struct {
	rt *realtime.Gateway
}

func NewOfferHandler(rt *realtime.Gateway) *OfferHandler {
	return &OfferHandler{rt: rt}
}

type CreateOfferInput struct {
	BloggerID          string     `json:"bloggerId" binding:"required"`
	Message            string     `json:"message" binding:"required"`
	ProposedBudget     float64    `json:"proposedBudget" binding:"required"`
	ProjectTitle       string     `json:"projectTitle"`
	ProjectDescription string     `json:"projectDescription"`
	Format             string     `json:"format"`
	Deadline           *time.Time `json:"deadline"`
}

type RespondOfferInput struct {
	Accept          *bool  `json:"accept" binding:"required"`
	RejectionReason string `json:"rejectionReason"`
}

// Create POST /offers
func (h *OfferHandler) Create(c *gin.Context) {
	advertiserID := c.MustGet("userId").(string)

	var input CreateOfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if input.ProposedBudget < minProposedBudget {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Proposed budget must be at least 100"})
		return
	}

	offer, err := services.CreateOffer(services.CreateOfferInput{
		AdvertiserID:       advertiserID,
		BloggerID:          input.BloggerID,
		Message:            input.Message,
		ProposedBudget:     input.ProposedBudget,
		ProjectTitle:       input.ProjectTitle,
		ProjectDescription: input.ProjectDescription,
		Format:             input.Format,
		Deadline:           input.Deadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"offer": offer})
}

// Respond PATCH /offers/:id/respond
func (h *OfferHandler) Respond(c *gin.Context) {
	actorID := c.MustGet("userId").(string)
	offerID := c.Param("id")

	var input RespondOfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	offer, chat, created, err := services.RespondToOffer(offerID, actorID, *input.Accept, input.RejectionReason)
	if err != nil {
		respondError(c, err)
		return
	}

	if created && h.rt != nil {
		h.rt.NotifyNewChat(chat)
	}

	body := gin.H{"offer": offer}
	if chat != nil {
		body["chat"] = chat
	}
	c.JSON(http.StatusOK, body)
}

// List GET /offers?page=&limit=
func (h *OfferHandler) List(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	offers, total, err := services.ListOffersForUser(userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": offers, "total": total})
}

// Get GET /offers/:id
func (h *OfferHandler) Get(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	offer, err := services.GetOfferForUser(c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"offer": offer})
}
