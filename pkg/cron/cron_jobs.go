package cron

import (
	"context"
	"database/sql"
	"fmt"
	"splitter/pkg/utils"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

func StartCronJob(db *sql.DB) *cron.Cron {
	c := cron.New()

	// Runs daily at midnight — send reminders
	_, err := c.AddFunc("0 0 * * *", func() {
		err := SendReminderEmailsToDebtors(db)
		if err != nil {
			utils.Logger.Errorf("Cron job failed to send reminder emails: %v", err)
		}
	})
	if err != nil {
		utils.Logger.Errorf("Failed to schedule debtor reminder job: %v", err)
	}

	c.Start()
	utils.Logger.Info("Cron jobs started (debtor reminders daily at midnight)")
	return c
}

// -------------------------------------------------------------
// Send daily reminders to debtors (email sends run concurrently)
// -------------------------------------------------------------
func SendReminderEmailsToDebtors(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT
			u.email,
			u.first_name,
			g.name AS group_name,
			e.name AS expense_name,
			e.created_at,
			d.currency,
			SUM(d.amount) AS total_owed
		FROM debts d
		JOIN expenses e ON d.expense_id = e.id
		JOIN groups g ON e.group_id = g.id
		JOIN users u ON d.debtor_id = u.id
		WHERE e.payer_id != d.debtor_id
		GROUP BY d.debtor_id, e.id, d.currency
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var wg sync.WaitGroup
	errChan := make(chan error, 10)

	for rows.Next() {
		var (
			email, firstName, groupName, expenseName, currency string
			recordedAtRaw                                      sql.NullString
			totalOwed                                          string
		)

		if err := rows.Scan(
			&email,
			&firstName,
			&groupName,
			&expenseName,
			&recordedAtRaw,
			&currency,
			&totalOwed,
		); err != nil {
			utils.Logger.Errorf("Failed to scan debtor row: %v", err)
			continue
		}

		var recordedAt time.Time
		if recordedAtRaw.Valid {
			recordedAt, err = time.Parse("2006-01-02 15:04:05", recordedAtRaw.String)
			if err != nil {
				utils.Logger.Errorf("Failed to parse created_at for %s: %v", email, err)
				continue
			}
		} else {
			recordedAt = time.Now()
		}

		wg.Add(1)
		go func(email, firstName, totalOwed, currency, groupName, expenseName string, recordedAt time.Time) {
			defer wg.Done()

			if err := utils.SendDebtorReminderEmail(
				email,
				firstName,
				totalOwed,
				currency,
				groupName,
				expenseName,
				recordedAt,
			); err != nil {
				errChan <- fmt.Errorf("failed to send reminder email to %s: %v", email, err)
				return
			}

			utils.Logger.Infof("📧 Sent reminder to %s (%s) — %s %s for '%s' in '%s'",
				firstName, email, totalOwed, currency, expenseName, groupName)
		}(email, firstName, totalOwed, currency, groupName, expenseName, recordedAt)
	}

	wg.Wait()
	close(errChan)

	for e := range errChan {
		utils.Logger.Error(e)
	}

	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("Error iterating debtor rows: %v", err)
		return err
	}

	utils.Logger.Info("✅ Finished sending all debtor reminder emails.")
	return nil
}
