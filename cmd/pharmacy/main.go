package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"pharmacy/cli"
)

func main() {
	// the product service contract carries prices as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
	// carry trace context between the storefront and the product service
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
