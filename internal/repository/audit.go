package repository

import (
	"fmt"
	"time"

	"go-jackpot/internal/http-server/handlers/mysql"
	"go-jackpot/internal/model"
)

type AuditRepository struct {
	dbhandler mysql.Handler
}

func NewAuditRepository(dbhandler mysql.Handler) *AuditRepository {
	return &AuditRepository{dbhandler: dbhandler}
}

func (repo *AuditRepository) SaveEvent(ev model.AuditEvent) error {
	const op = "repository.audit.SaveEvent"

	const query = "INSERT INTO draw_events(draw_id," +
		" event," +
		" address," +
		" amount," +
		" request_id," +
		" created_at) " +
		"VALUES(?, ?, ?, ?, ?, ?)"

	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := repo.dbhandler.PrepareAndExecute(query,
		ev.DrawID,
		ev.Event,
		ev.Address,
		ev.Amount,
		ev.RequestID,
		createdAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (repo *AuditRepository) ListEventsByDraw(drawID string) ([]model.AuditEvent, error) {
	const op = "repository.audit.ListEventsByDraw"

	const query = "SELECT id,draw_id,event,address,amount,request_id,created_at " +
		"FROM draw_events WHERE draw_id = ? ORDER BY id ASC"

	rows, err := repo.dbhandler.PrepareAndQuery(query, drawID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var events []model.AuditEvent

	for rows.Next() {
		var ev model.AuditEvent

		err = rows.Scan(&ev.ID, &ev.DrawID, &ev.Event, &ev.Address, &ev.Amount, &ev.RequestID, &ev.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		events = append(events, ev)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}
