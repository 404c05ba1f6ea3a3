package events

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/econ"
)

func TestTickMessage(t *testing.T) {
	summary := econ.TickSummary{
		TickNumber:      42,
		TickID:          "0c5f7a0e-2c3f-4a8e-918f-2f6dd2a05c11",
		Caller:          "scheduler",
		TickedAt:        time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		BotPurchases:    3,
		StockUpdates:    5,
		CryptoUpdates:   2,
		TotalSpentCents: 49_998_200,
	}

	msg, err := tickMessage(summary)
	require.NoError(t, err)
	require.Equal(t, "42", string(msg.Key))

	var decoded econ.TickSummary
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, summary.TickNumber, decoded.TickNumber)
	require.Equal(t, summary.TickID, decoded.TickID)
	require.Equal(t, summary.Caller, decoded.Caller)
	require.Equal(t, summary.TotalSpentCents, decoded.TotalSpentCents)
	require.True(t, summary.TickedAt.Equal(decoded.TickedAt))
}
