package utils

import (
	"fmt"
	"time"
)

// SendPasswordResetEmail sends a password reset email with a secure link.
func SendPasswordResetEmail(to, username, resetURL string, expiresAt time.Time) error {
	subject := "🔐 Reset Your Splitter Password"

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Password Reset</title>
	<style>
		body {
			font-family: 'Segoe UI', Roboto, Arial, sans-serif;
			background-color: #f4f8f5;
			margin: 0;
			padding: 0;
			color: #333;
		}
		.container {
			max-width: 520px;
			margin: 40px auto;
			background: #ffffff;
			border-radius: 12px;
			box-shadow: 0 8px 24px rgba(0, 0, 0, 0.08);
			overflow: hidden;
			border-top: 5px solid #0a4d3c;
		}
		.header {
			background-color: #0a4d3c;
			color: #ffffff;
			text-align: center;
			padding: 24px 20px;
		}
		.header h1 {
			margin: 0;
			font-size: 20px;
			font-weight: 600;
		}
		.content {
			padding: 24px 20px;
			font-size: 14px;
			line-height: 1.6;
		}
		.button {
			display: inline-block;
			background-color: #0a4d3c;
			color: #ffffff !important;
			text-decoration: none;
			padding: 12px 24px;
			border-radius: 8px;
			font-weight: 600;
			margin: 16px 0;
		}
		.footer {
			text-align: center;
			font-size: 12px;
			color: #888;
			padding: 16px;
		}
	</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Password Reset</h1>
			</div>
			<div class="content">
				<p>Hi %s,</p>
				<p>We received a request to reset your Splitter password. Click the
				button below to choose a new one:</p>
				<p style="text-align:center;">
					<a class="button" href="%s">Reset Password</a>
				</p>
				<p>This link expires at <strong>%s</strong>. If you did not request a
				reset, you can safely ignore this email.</p>
			</div>
			<div class="footer">
				&copy; Splitter — shared expenses made simple
			</div>
		</div>
	</body>
	</html>
	`, username, resetURL, expiresAt.Format("15:04 MST, Jan 2 2006"))

	return SendEmail(to, subject, body)
}
