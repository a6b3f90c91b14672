package tools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/go-assistant/tools"
)

func price(s string) *string { return &s }

func TestPlaceOrder(t *testing.T) {
	tests := []struct {
		name    string
		in      tools.PlaceOrderInput
		want    string
		isError bool
	}{
		{"no_items", tools.PlaceOrderInput{}, "Place order successful. Order total: $0.00", false},
		{"dollar_prices", tools.PlaceOrderInput{Items: []tools.OrderItem{{ItemName: "pizza", ItemPrice: price("$10.00")}, {ItemPrice: price("$5")}}}, "Place order successful. Order total: $16.20", false},
		{"missing_price_is_zero", tools.PlaceOrderInput{Items: []tools.OrderItem{{ItemName: "water"}, {ItemPrice: price("10")}}}, "Place order successful. Order total: $10.80", false},
		{"unparsable_price", tools.PlaceOrderInput{Items: []tools.OrderItem{{ItemPrice: price("free")}}}, "Error parsing an item price", true},
		{"empty_price", tools.PlaceOrderInput{Items: []tools.OrderItem{{ItemName: "soda", ItemPrice: price("")}}}, "Error parsing an item price", true},
		{"two_decimal_points", tools.PlaceOrderInput{Items: []tools.OrderItem{{ItemPrice: price("1.2.3")}}}, "Error parsing an item price", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tools.PlaceOrder(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value)
			assert.Equal(t, tt.isError, res.IsError)
		})
	}
}

func TestPlaceOrder_ThroughDefinition(t *testing.T) {
	args := tools.Arguments{"items": []any{map[string]any{"itemName": "calzone", "itemPrice": "$20"}}}
	res, err := tools.PlaceOrderDefinition.Function(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, "Place order successful. Order total: $21.60", res.Value)
}

func TestPlaceOrder_ThroughDefinition_PriceForms(t *testing.T) {
	tests := []struct {
		name    string
		item    map[string]any
		want    string
		isError bool
	}{
		{"missing_price", map[string]any{"itemName": "water"}, "Place order successful. Order total: $0.00", false},
		{"empty_price", map[string]any{"itemName": "water", "itemPrice": ""}, "Error parsing an item price", true},
		{"extra_keys_ignored", map[string]any{"itemName": "Pizza", "itemPrice": "$10.00", "quantity": float64(2)}, "Place order successful. Order total: $10.80", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tools.Arguments{"items": []any{tt.item}}
			res, err := tools.PlaceOrderDefinition.Function(context.Background(), args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value)
			assert.Equal(t, tt.isError, res.IsError)
		})
	}
}

func TestSimpleCapabilities_IgnoreExtraKeys(t *testing.T) {
	res, err := tools.TransferToAgentDefinition.Function(context.Background(), tools.Arguments{"reason": "caller asked"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Transferring the call to an agent", res.Value)
}

func TestSimpleCapabilities(t *testing.T) {
	res, err := tools.TransferToAgentDefinition.Function(context.Background(), tools.Arguments{})
	require.NoError(t, err)
	assert.Equal(t, "Transferring the call to an agent", res.Value)

	res, err = tools.HangupDefinition.Function(context.Background(), tools.Arguments{})
	require.NoError(t, err)
	assert.Equal(t, "The system will hang up the phone call after the assistant says goodbye.", res.Value)
}
