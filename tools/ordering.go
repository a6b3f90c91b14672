package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// orderTaxRate is applied on top of the item subtotal.
const orderTaxRate = 0.08

type TransferToAgentInput struct{}

type HangupInput struct{}

type OrderItem struct {
	ItemName  string `json:"itemName,omitempty" jsonschema_description:"Menu item name."`
	ItemPrice *string `json:"itemPrice,omitempty" jsonschema_description:"Item price as shown on the menu, e.g. $12.99."`
}

type PlaceOrderInput struct {
	Items []OrderItem `json:"items,omitempty" jsonschema_description:"Items in the order."`
}

var TransferToAgentDefinition = NewFunction("transfer_to_agent",
	"Transfer the caller to a human agent.",
	func(ctx context.Context, _ TransferToAgentInput) (FunctionResult, error) {
		return Success("Transferring the call to an agent"), nil
	})

var HangupDefinition = NewFunction("hangup_the_phone",
	"End the phone call once the assistant has said goodbye.",
	func(ctx context.Context, _ HangupInput) (FunctionResult, error) {
		return Success("The system will hang up the phone call after the assistant says goodbye."), nil
	})

var PlaceOrderDefinition = NewFunction("place_order",
	"Place the caller's order and report the total including tax.",
	PlaceOrder)

// PlaceOrder totals the item prices and adds tax. Prices keep only digits and
// '.'. A missing price counts as zero; an empty or unparsable one is an error
// result. The total is rounded to cents.
func PlaceOrder(ctx context.Context, in PlaceOrderInput) (FunctionResult, error) {
	total := 0.0
	for _, item := range in.Items {
		price := "0"
		if item.ItemPrice != nil {
			price = *item.ItemPrice
		}
		v, err := strconv.ParseFloat(cleanPrice(price), 64)
		if err != nil {
			return Failure("Error parsing an item price"), nil
		}
		total += v
	}
	total += total * orderTaxRate
	return Success(fmt.Sprintf("Place order successful. Order total: $%.2f", total)), nil
}

func cleanPrice(s string) string {
	var b strings.Builder
	for _, c := range s {
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Ordering returns the capabilities wired for the ordering assistant.
func Ordering() []ToolDefinition {
	return []ToolDefinition{TransferToAgentDefinition, HangupDefinition, PlaceOrderDefinition}
}
