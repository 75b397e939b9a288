package utils

import (
	"fmt"
	"time"
)

// SendDebtorReminderEmail nudges a group member about an outstanding debt.
func SendDebtorReminderEmail(to, firstName, amount, currency, groupName, expenseName string, recordedAt time.Time) error {
	subject := fmt.Sprintf("💰 Reminder: You Still Owe %s %s for '%s'", amount, currency, expenseName)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Debt Reminder</title>
	<style>
		body {
			font-family: 'Segoe UI', Roboto, Arial, sans-serif;
			background-color: #f6f8f7;
			margin: 0;
			padding: 0;
			color: #333;
		}
		.container {
			max-width: 480px;
			margin: 25px auto;
			background: #ffffff;
			border-radius: 12px;
			box-shadow: 0 4px 16px rgba(0, 0, 0, 0.08);
			overflow: hidden;
			border-top: 5px solid #d9534f;
		}
		.header {
			background-color: #d9534f;
			color: #ffffff;
			text-align: center;
			padding: 18px 12px;
		}
		.header h1 {
			margin: 0;
			font-size: 18px;
			font-weight: 600;
		}
		.content {
			padding: 20px 18px;
			font-size: 14px;
			line-height: 1.6;
		}
		.amount-box {
			background: #fff6f6;
			border: 1px solid #f1c1c1;
			border-radius: 8px;
			padding: 12px 14px;
			margin: 16px 0;
			text-align: center;
		}
		.amount-box h3 {
			margin: 0;
			color: #d9534f;
			font-size: 16px;
			font-weight: 700;
		}
		.footer {
			text-align: center;
			font-size: 12px;
			color: #888;
			padding: 14px;
		}
	</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Friendly Debt Reminder</h1>
			</div>
			<div class="content">
				<p>Hi %s,</p>
				<p>You still have an unsettled share of <strong>%s</strong> in the
				group <strong>%s</strong>, recorded on %s.</p>
				<div class="amount-box">
					<h3>%s %s outstanding</h3>
				</div>
				<p>Please square it up with the payer when you get a chance.</p>
			</div>
			<div class="footer">
				&copy; Splitter — shared expenses made simple
			</div>
		</div>
	</body>
	</html>
	`, firstName, expenseName, groupName, recordedAt.Format("Jan 2, 2006"), amount, currency)

	return SendEmail(to, subject, body)
}
