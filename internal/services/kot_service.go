package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
)

// fallbackStation labels tickets for items whose category snapshot is
// missing (legacy rows).
const fallbackStation = "Kitchen"

// KOTTicket is one kitchen slip: a station label and the items routed to
// it.
type KOTTicket struct {
	Station string             `json:"station"`
	Items   []models.OrderItem `json:"items"`
}

// KOTPrintBatch is the result of one print action. A station-split batch
// carries several tickets sharing the same print number.
type KOTPrintBatch struct {
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	PrintNumber int         `json:"print_number"`
	ReprintAll  bool        `json:"reprint_all"`
	PrintedAt   time.Time   `json:"printed_at"`
	Tickets     []KOTTicket `json:"tickets"`
}

// KOTService decides which items go on a kitchen ticket and records the
// durable evidence of every print.
type KOTService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewKOTService constructs KOTService.
func NewKOTService(db *gorm.DB, audit *AuditService) *KOTService {
	return &KOTService{db: db, audit: audit}
}

// newItemsSince selects the items not yet sent to the kitchen: never
// printed, or added after the order's last KOT print.
func newItemsSince(order *models.Order, items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		if it.LastPrintedAt == nil {
			out = append(out, it)
			continue
		}
		if order.LastKOTPrintedAt != nil && it.AddedAt.After(*order.LastKOTPrintedAt) {
			out = append(out, it)
		}
	}
	return out
}

// splitByStation re-partitions the batch into one ticket per station, in
// order of first appearance. Every item lands in exactly one ticket.
func splitByStation(items []models.OrderItem) []KOTTicket {
	index := make(map[string]int)
	tickets := make([]KOTTicket, 0)
	for _, it := range items {
		station := it.Station
		if station == "" {
			station = fallbackStation
		}
		i, ok := index[station]
		if !ok {
			i = len(tickets)
			index[station] = i
			tickets = append(tickets, KOTTicket{Station: station})
		}
		tickets[i].Items = append(tickets[i].Items, it)
	}
	return tickets
}

// PrintKOT builds a print batch for the order and commits it: every
// included item is stamped, the order's print counters advance by one
// print action, and one immutable record is written per ticket. The
// stamping step is atomic over the selected batch; a failure leaves no
// item partially stamped.
//
// Without reprintAll the batch holds only items new since the last
// print, and an empty batch fails with the benign ErrNothingToPrint. An
// order with no items at all is always an error.
func (s *KOTService) PrintKOT(orderID uuid.UUID, splitStations, reprintAll bool, actor Actor) (*KOTPrintBatch, error) {
	var batch *KOTPrintBatch
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		var items []models.OrderItem
		if err := tx.
			Preload("Selections.Options").
			Preload("DealBreakdown.Selections.Options").
			Where("order_id = ?", order.ID).
			Order("added_at asc").
			Find(&items).Error; err != nil {
			return apperr.FromDB(err, "order items")
		}

		if len(items) == 0 {
			return apperr.Validation("no items in order")
		}

		selected := items
		if !reprintAll {
			selected = newItemsSince(&order, items)
			if len(selected) == 0 {
				return apperr.ErrNothingToPrint
			}
		}

		now := time.Now()
		printNumber := order.KOTPrintCount + 1

		tickets := []KOTTicket{{Station: "", Items: selected}}
		if splitStations {
			tickets = splitByStation(selected)
		}

		ids := make([]uuid.UUID, 0, len(selected))
		for _, it := range selected {
			ids = append(ids, it.ID)
		}

		if err := tx.Model(&models.OrderItem{}).
			Where("id IN ?", ids).
			Update("last_printed_at", now).Error; err != nil {
			return apperr.FromDB(err, "order items")
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"kot_print_count":     printNumber,
			"last_kot_printed_at": now,
		}).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		for _, ticket := range tickets {
			record := models.KOTPrintRecord{
				OrderID:     order.ID,
				PrintNumber: printNumber,
				Station:     ticket.Station,
				PrintedByID: actor.ID,
				PrintedAt:   now,
			}
			for _, it := range ticket.Items {
				record.ItemIDs = append(record.ItemIDs, it.ID.String())
			}
			if err := tx.Create(&record).Error; err != nil {
				return apperr.FromDB(err, "kot print record")
			}
		}

		if err := s.audit.Record(tx, actor.ID, "print_kot", "orders", order.ID.String(),
			nil, nil, fmt.Sprintf("KOT print #%d: %d item(s), %d ticket(s)", printNumber, len(selected), len(tickets))); err != nil {
			return err
		}

		batch = &KOTPrintBatch{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			PrintNumber: printNumber,
			ReprintAll:  reprintAll,
			PrintedAt:   now,
			Tickets:     tickets,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ListPrints returns the order's immutable print history.
func (s *KOTService) ListPrints(orderID uuid.UUID) ([]models.KOTPrintRecord, error) {
	var records []models.KOTPrintRecord
	err := s.db.Where("order_id = ?", orderID).
		Order("print_number asc, station asc").
		Find(&records).Error
	if err != nil {
		return nil, apperr.FromDB(err, "kot print records")
	}
	return records, nil
}
