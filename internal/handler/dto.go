package handler

import (
	"time"

	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shinyyama/harvest-market-backend/internal/service"
	"github.com/shopspring/decimal"
)

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

type PreOrderResponse struct {
	ID           uint64          `json:"id"`
	UserID       uint64          `json:"userId"`
	ProductID    uint64          `json:"productId"`
	Qty          decimal.Decimal `json:"qty"`
	Location     string          `json:"location"`
	Note         string          `json:"note"`
	DeliveryDate *string         `json:"deliveryDate,omitempty"`
	Status       string          `json:"status"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

func toPreOrderResponse(p *model.PreOrder) PreOrderResponse {
	return PreOrderResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		ProductID:    p.ProductID,
		Qty:          p.Qty,
		Location:     p.Location,
		Note:         p.Note,
		DeliveryDate: formatDate(p.DeliveryDate),
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

type OrderDetailResponse struct {
	ID             uint64          `json:"id"`
	PreOrderID     uint64          `json:"preOrderId"`
	FarmID         uint64          `json:"farmId"`
	ProductID      uint64          `json:"productId"`
	CropID         *uint64         `json:"cropId,omitempty"`
	MarketSupplyID *uint64         `json:"marketSupplyId,omitempty"`
	FulfilledQty   decimal.Decimal `json:"fulfilledQty"`
	Description    string          `json:"description"`
	OfferStatus    string          `json:"offerStatus"`
	CreatedAt      string          `json:"createdAt"`
}

func toOrderDetailResponse(d *model.OrderDetail) OrderDetailResponse {
	return OrderDetailResponse{
		ID:             d.ID,
		PreOrderID:     d.PreOrderID,
		FarmID:         d.FarmID,
		ProductID:      d.ProductID,
		CropID:         d.CropID,
		MarketSupplyID: d.MarketSupplyID,
		FulfilledQty:   d.FulfilledQty,
		Description:    d.Description,
		OfferStatus:    string(d.OfferStatus),
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
	}
}

type MarketSupplyResponse struct {
	ID           uint64          `json:"id"`
	FarmID       uint64          `json:"farmId"`
	CropID       uint64          `json:"cropId"`
	ProductID    uint64          `json:"productId"`
	AvailableQty decimal.Decimal `json:"availableQty"`
	Unit         string          `json:"unit"`
	Availability string          `json:"availability"`
}

func toMarketSupplyResponse(s *model.MarketSupply) MarketSupplyResponse {
	return MarketSupplyResponse{
		ID:           s.ID,
		FarmID:       s.FarmID,
		CropID:       s.CropID,
		ProductID:    s.ProductID,
		AvailableQty: s.AvailableQty,
		Unit:         s.Unit,
		Availability: s.Availability.Format(dateLayout),
	}
}

type CropResponse struct {
	ID          uint64          `json:"id"`
	FarmID      uint64          `json:"farmId"`
	ProductID   uint64          `json:"productId"`
	Name        string          `json:"name"`
	Qty         decimal.Decimal `json:"qty"`
	Image       *string         `json:"image,omitempty"`
	Status      string          `json:"status"`
	HarvestDate *string         `json:"harvestDate,omitempty"`
}

func toCropResponse(c *model.Crop) CropResponse {
	status := "planting"
	if c.Status == model.CropStatusHarvested {
		status = "harvested"
	}
	return CropResponse{
		ID:          c.ID,
		FarmID:      c.FarmID,
		ProductID:   c.ProductID,
		Name:        c.Name,
		Qty:         c.Qty,
		Image:       c.Image,
		Status:      status,
		HarvestDate: formatDate(c.HarvestDate),
	}
}

type NotificationResponse struct {
	ID          uint64  `json:"id"`
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	ActorID     uint64  `json:"actorId"`
	FarmID      *uint64 `json:"farmId,omitempty"`
	PreOrderID  uint64  `json:"preOrderId"`
	ReferenceID *uint64 `json:"referenceId,omitempty"`
	Read        bool    `json:"read"`
	CreatedAt   string  `json:"createdAt"`
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		Type:        string(n.Type),
		Message:     n.Message,
		ActorID:     n.ActorID,
		FarmID:      n.FarmID,
		PreOrderID:  n.PreOrderID,
		ReferenceID: n.ReferenceID,
		Read:        n.ReadStatus,
		CreatedAt:   n.CreatedAt.Format(time.RFC3339),
	}
}

type ProductResponse struct {
	ID          uint64  `json:"id"`
	OwnerID     uint64  `json:"ownerId"`
	Name        string  `json:"name"`
	Unit        string  `json:"unit"`
	Image       *string `json:"image,omitempty"`
	Description string  `json:"description"`
}

func toProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Unit:        p.UnitOrDefault(),
		Image:       p.Image,
		Description: p.Description,
	}
}

type TrendingResponse struct {
	Product       ProductResponse `json:"product"`
	PreOrderCount int64           `json:"preOrderCount"`
	Percentage    decimal.Decimal `json:"percentage"`
}

func toTrendingResponse(t service.TrendingItem) TrendingResponse {
	return TrendingResponse{
		Product:       toProductResponse(&t.Product),
		PreOrderCount: t.PreOrderCount,
		Percentage:    t.Percentage,
	}
}

func mapSlice[T, R any](in []T, f func(*T) R) []R {
	out := make([]R, 0, len(in))
	for i := range in {
		out = append(out, f(&in[i]))
	}
	return out
}
