package utils

import "fmt"

// SendWelcomeEmail greets a newly registered user.
func SendWelcomeEmail(to, username string) error {
	subject := "🎉 Welcome to Splitter!"

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Welcome</title>
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
				<h1>Welcome aboard, %s!</h1>
			</div>
			<div class="content">
				<p>Your Splitter account is ready.</p>
				<p>Create a group, invite your friends and start recording shared
				expenses — we will keep track of who owes whom, in every currency,
				down to the last cent.</p>
			</div>
			<div class="footer">
				&copy; Splitter — shared expenses made simple
			</div>
		</div>
	</body>
	</html>
	`, username)

	return SendEmail(to, subject, body)
}
