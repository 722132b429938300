package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinyyama/harvest-market-backend/internal/dispatch"
	"github.com/shinyyama/harvest-market-backend/internal/identity"
	"github.com/shinyyama/harvest-market-backend/internal/logger"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shinyyama/harvest-market-backend/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NotificationService creates notifications inside the caller's transaction.
// Creation is idempotent per (pre_order_id, recipient_id, type): a second
// trigger for the same key is skipped and returns no rows. Storage failures
// come back wrapped in ErrNotificationFailed so the caller rolls back.
type NotificationService interface {
	NotifyFarmers(ctx context.Context, tx *gorm.DB, p *model.PreOrder) ([]model.Notification, error)
	NotifyVendor(ctx context.Context, tx *gorm.DB, d *model.OrderDetail) ([]model.Notification, error)
	NotifyFarm(ctx context.Context, tx *gorm.DB, d *model.OrderDetail, override string) ([]model.Notification, error)
	MarkRead(ctx context.Context, actor identity.Actor, id uint64) error
	UnreadCount(ctx context.Context, actor identity.Actor) (int64, error)
	List(ctx context.Context, actor identity.Actor, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, actor identity.Actor) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	farms     repository.FarmRepository
	preOrders repository.PreOrderRepository
}

func NewNotificationService(repo repository.NotificationRepository, farms repository.FarmRepository, preOrders repository.PreOrderRepository) NotificationService {
	return &notificationService{repo: repo, farms: farms, preOrders: preOrders}
}

func (s *notificationService) bind(tx *gorm.DB) (repository.NotificationRepository, repository.FarmRepository, repository.PreOrderRepository) {
	if tx == nil {
		return s.repo, s.farms, s.preOrders
	}
	return s.repo.WithTx(tx), s.farms.WithTx(tx), s.preOrders.WithTx(tx)
}

// NotifyFarmers fans a new or edited pre-order out to the owners of every
// farm, resolved once per call.
func (s *notificationService) NotifyFarmers(ctx context.Context, tx *gorm.DB, p *model.PreOrder) ([]model.Notification, error) {
	repo, farms, _ := s.bind(tx)
	list, err := farms.ListAll(ctx)
	if err != nil {
		return nil, deliveryFailed(err)
	}
	seen := make(map[uint64]bool, len(list))
	var created []model.Notification
	for _, f := range list {
		if seen[f.OwnerID] || f.OwnerID == p.UserID {
			continue
		}
		seen[f.OwnerID] = true
		farmID := f.ID
		n := &model.Notification{
			RecipientID: f.OwnerID,
			ActorID:     p.UserID,
			FarmID:      &farmID,
			PreOrderID:  p.ID,
			Type:        model.NotificationTypePreOrder,
			Message:     fmt.Sprintf("New pre-order #%d: %s requested.", p.ID, p.Qty.String()),
		}
		ok, err := s.create(ctx, repo, n)
		if err != nil {
			return nil, err
		}
		if ok {
			created = append(created, *n)
		}
	}
	return created, nil
}

// NotifyVendor tells the pre-order owner about a farm's answer.
func (s *notificationService) NotifyVendor(ctx context.Context, tx *gorm.DB, d *model.OrderDetail) ([]model.Notification, error) {
	repo, farms, preOrders := s.bind(tx)
	p, err := preOrders.FindByID(ctx, d.PreOrderID)
	if err != nil {
		return nil, deliveryFailed(err)
	}
	f, err := farms.FindByID(ctx, d.FarmID)
	if err != nil {
		return nil, deliveryFailed(err)
	}
	typ := model.NotificationTypeOffer
	msg := fmt.Sprintf("%s offered %s for pre-order #%d.", f.Name, d.FulfilledQty.String(), p.ID)
	switch d.OfferStatus {
	case model.OfferStatusRejected:
		typ = model.NotificationTypeRejection
		msg = fmt.Sprintf("%s declined pre-order #%d.", f.Name, p.ID)
	case model.OfferStatusCancelled:
		typ = model.NotificationTypeRejection
		msg = fmt.Sprintf("%s withdrew its offer for pre-order #%d.", f.Name, p.ID)
	}
	return s.single(ctx, repo, &model.Notification{
		RecipientID: p.UserID,
		ActorID:     f.OwnerID,
		FarmID:      &f.ID,
		PreOrderID:  p.ID,
		ReferenceID: &d.ID,
		Type:        typ,
		Message:     msg,
	})
}

// NotifyFarm tells the farm owner about the vendor's decision. override
// replaces the default message when set.
func (s *notificationService) NotifyFarm(ctx context.Context, tx *gorm.DB, d *model.OrderDetail, override string) ([]model.Notification, error) {
	repo, farms, preOrders := s.bind(tx)
	p, err := preOrders.FindByID(ctx, d.PreOrderID)
	if err != nil {
		return nil, deliveryFailed(err)
	}
	f, err := farms.FindByID(ctx, d.FarmID)
	if err != nil {
		return nil, deliveryFailed(err)
	}
	typ := model.NotificationTypeRejection
	msg := fmt.Sprintf("Your offer for pre-order #%d was rejected.", p.ID)
	switch d.OfferStatus {
	case model.OfferStatusConfirmed:
		typ = model.NotificationTypeAcceptance
		msg = fmt.Sprintf("Your offer of %s for pre-order #%d was confirmed.", d.FulfilledQty.String(), p.ID)
	case model.OfferStatusCancelled:
		msg = fmt.Sprintf("The vendor cancelled your offer for pre-order #%d.", p.ID)
	}
	if override != "" {
		msg = override
	}
	return s.single(ctx, repo, &model.Notification{
		RecipientID: f.OwnerID,
		ActorID:     p.UserID,
		FarmID:      &f.ID,
		PreOrderID:  p.ID,
		ReferenceID: &d.ID,
		Type:        typ,
		Message:     msg,
	})
}

func (s *notificationService) single(ctx context.Context, repo repository.NotificationRepository, n *model.Notification) ([]model.Notification, error) {
	ok, err := s.create(ctx, repo, n)
	if err != nil || !ok {
		return nil, err
	}
	return []model.Notification{*n}, nil
}

func (s *notificationService) create(ctx context.Context, repo repository.NotificationRepository, n *model.Notification) (bool, error) {
	_, err := repo.FindByKey(ctx, n.PreOrderID, n.RecipientID, n.Type)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, deliveryFailed(err)
	}
	ok, err := repo.CreateIfAbsent(ctx, n)
	if err != nil {
		return false, deliveryFailed(err)
	}
	return ok, nil
}

func deliveryFailed(err error) error {
	return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
}

func (s *notificationService) MarkRead(ctx context.Context, actor identity.Actor, id uint64) error {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err)
	}
	if n.RecipientID != actor.UserID() {
		return forbiddenf("notification %d belongs to another user", id)
	}
	if n.ReadStatus {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *notificationService) UnreadCount(ctx context.Context, actor identity.Actor) (int64, error) {
	return s.repo.CountUnread(ctx, actor.UserID())
}

// List returns the actor's notifications of the types its role receives and
// the overall unread count.
func (s *notificationService) List(ctx context.Context, actor identity.Actor, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	types := visibleTypes(actor)
	if len(types) == 0 {
		return []model.Notification{}, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, actor.UserID(), types, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, actor.UserID())
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func visibleTypes(actor identity.Actor) []model.NotificationType {
	switch actor.(type) {
	case identity.Vendor:
		return []model.NotificationType{model.NotificationTypeAcceptance, model.NotificationTypeRejection, model.NotificationTypeOffer}
	case identity.Farmer:
		return []model.NotificationType{model.NotificationTypePreOrder, model.NotificationTypeAcceptance, model.NotificationTypeRejection}
	case identity.Admin:
		return []model.NotificationType{model.NotificationTypePreOrder, model.NotificationTypeAcceptance, model.NotificationTypeRejection, model.NotificationTypeOffer}
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor identity.Actor) error {
	return s.repo.MarkAllRead(ctx, actor.UserID())
}

// publishCommitted hands notifications of a committed transaction to pub.
// Delivery is owned downstream, so a failure is only logged.
func publishCommitted(ctx context.Context, pub dispatch.Publisher, log *logrus.Logger, created []model.Notification) {
	if pub == nil || len(created) == 0 {
		return
	}
	if err := pub.Publish(ctx, created); err != nil && log != nil {
		logger.LogError(logger.FromContext(ctx, log), "service", "publishCommitted", "publish notifications", len(created), err)
	}
}
