package services

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/tvkcanada/tvk-be/internal/models"
)

const exportPageSize = 200

var exportHeader = []string{
	"membership_id", "member_number", "name", "email", "plan", "status", "source",
	"founding_member", "card_status", "start_date", "end_date", "cancel_at_period_end",
	"amount", "created_at",
}

// ExportCSV writes every membership matching filter to w as CSV. Limit and Offset are ignored.
func (s *MembershipService) ExportCSV(ctx context.Context, w io.Writer, filter models.MembershipFilter) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}

	users := make(map[string]*models.User)
	filter.Limit = exportPageSize
	filter.Offset = 0
	for {
		page, err := s.store.Memberships.List(ctx, filter)
		if err != nil {
			return err
		}
		for _, m := range page {
			u, ok := users[m.UserID]
			if !ok {
				// Deleted accounts still export their memberships with blank contact fields.
				u, _ = s.store.Users.GetByID(ctx, m.UserID)
				if u == nil {
					u = &models.User{}
				}
				users[m.UserID] = u
			}
			if err := cw.Write(exportRow(m, u)); err != nil {
				return err
			}
		}
		if len(page) < exportPageSize {
			break
		}
		filter.Offset += exportPageSize
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(m models.Membership, u *models.User) []string {
	return []string{
		m.ID,
		m.MemberNumber,
		u.Name,
		u.Email,
		m.Plan,
		m.Status,
		m.Source,
		strconv.FormatBool(m.FoundingMember),
		m.CardStatus,
		exportDate(m.StartDate),
		exportDate(m.EndDate),
		strconv.FormatBool(m.CancelAtPeriodEnd),
		models.FormatAmount(m.AmountCents, m.Currency),
		m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func exportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
