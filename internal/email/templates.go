package email

import (
	"fmt"
	"strings"

	"github.com/example/ec-orders/internal/domain/order"
)

// BuildOrderConfirmationBody renders the HTML confirmation email.
func BuildOrderConfirmationBody(o *order.Order) string {
	var itemsHTML strings.Builder
	for _, item := range o.Items {
		name := item.ProductName
		if item.VariantName != "" {
			name += " / " + item.VariantName
		}
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			name,
			item.Quantity,
			FormatMoney(item.UnitPrice),
			FormatMoney(item.TotalPrice),
		))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #2d3748; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Thank you for your order</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<h2 style="font-size: 18px; border-bottom: 2px solid #2d3748; padding-bottom: 10px;">Order details</h2>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Item</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Unit price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Total</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<table style="width: 100%%; margin: 20px 0; font-size: 14px;">
			<tr><td style="color: #666;">Subtotal</td><td style="text-align: right;">%s</td></tr>
			<tr><td style="color: #666;">Tax</td><td style="text-align: right;">%s</td></tr>
			<tr><td style="color: #666;">Shipping</td><td style="text-align: right;">%s</td></tr>
			<tr><td style="color: #666;">Discount</td><td style="text-align: right;">-%s</td></tr>
			<tr><td style="font-weight: bold;">Total</td><td style="text-align: right; font-weight: bold; font-size: 18px;">%s</td></tr>
		</table>

		<h2 style="font-size: 18px; border-bottom: 2px solid #2d3748; padding-bottom: 10px;">Shipping to</h2>
		<p style="margin: 10px 0;">%s</p>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This is an automated message. If you have any questions, please contact support.
		</p>
	</div>
</body>
</html>`,
		o.OrderNumber,
		itemsHTML.String(),
		FormatMoney(o.Subtotal),
		FormatMoney(o.TaxAmount),
		FormatMoney(o.ShippingAmount),
		FormatMoney(o.DiscountAmount),
		FormatMoney(o.TotalAmount),
		formatAddress(o.Shipping),
	)
}

// FormatMoney renders an amount in cents as dollars.
func FormatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func formatAddress(a order.Address) string {
	lines := []string{a.FirstName + " " + a.LastName}
	if a.Company != "" {
		lines = append(lines, a.Company)
	}
	lines = append(lines, a.Line1)
	if a.Line2 != "" {
		lines = append(lines, a.Line2)
	}
	lines = append(lines, fmt.Sprintf("%s, %s %s", a.City, a.State, a.PostalCode), a.Country)
	return strings.Join(lines, "<br>")
}
