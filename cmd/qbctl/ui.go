package main

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printTickSummary(out map[string]any) {
	accent.Printf("Tick #%v\n", out["tick_number"])
	fmt.Printf("  ticked_at:     %v\n", out["ticked_at"])
	fmt.Printf("  caller:        %v\n", out["caller"])
	fmt.Printf("  bot_purchases: %v\n", out["bot_purchases"])
	fmt.Printf("  spent_cents:   %v\n", out["total_spent_cents"])
}

func printTickRecord(out map[string]any) {
	accent.Printf("Tick #%v\n", out["tick_number"])
	fmt.Printf("  ticked_at:     %v\n", out["ticked_at"])
	if purchases, ok := out["bot_purchases"].([]any); ok {
		fmt.Printf("  bot_purchases: %d\n", len(purchases))
	}
	fmt.Printf("  spent_cents:   %v\n", out["total_budget_spent_cents"])
}
