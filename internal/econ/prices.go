package econ

import (
	"context"
	"math"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
)

type marketDynamics struct {
	NoiseScale       float64
	ShockProb        float64
	ShockScale       float64
	MeanReversion    float64
	RegimeSwitchProb float64
	MaxDropPerTick   float64
}

func volatilityParams(mode string) marketDynamics {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "calm":
		return marketDynamics{
			NoiseScale:       0.020,
			ShockProb:        0.05,
			ShockScale:       0.09,
			MeanReversion:    0.03,
			RegimeSwitchProb: 0.04,
			MaxDropPerTick:   1.20,
		}
	case "wild":
		return marketDynamics{
			NoiseScale:       0.060,
			ShockProb:        0.18,
			ShockScale:       0.20,
			MeanReversion:    0.010,
			RegimeSwitchProb: 0.11,
			MaxDropPerTick:   2.60,
		}
	default:
		return marketDynamics{
			NoiseScale:       0.038,
			ShockProb:        0.11,
			ShockScale:       0.14,
			MeanReversion:    0.018,
			RegimeSwitchProb: 0.07,
			MaxDropPerTick:   2.00,
		}
	}
}

func regimeDrift(regime string) float64 {
	switch regime {
	case "bull":
		return 0.0085
	case "bear":
		return -0.0085
	default:
		return 0
	}
}

func randomRegime(seed float64) string {
	switch {
	case seed < 0.33:
		return "bear"
	case seed < 0.66:
		return "neutral"
	default:
		return "bull"
	}
}

func meanReversion(price, anchor int64, strength float64) float64 {
	if anchor <= 0 {
		return 0
	}
	return strength * (float64(anchor-price) / float64(anchor))
}

func normalish(seed float64) float64 {
	return seed + seed - 1
}

func signedShock(magSeed, signSeed, base float64) float64 {
	mag := base * (0.35 + 2.8*magSeed*magSeed)
	if signSeed < 0.5 {
		return -mag
	}
	return mag
}

// evolvePrice applies a log return with the price clamped to
// [minAssetPriceCents, maxAssetPriceCents]. The ceiling comparison happens in
// float space, before the int64 conversion can overflow.
func evolvePrice(priceCents int64, ret, maxDropPerTick float64) int64 {
	if priceCents <= 0 {
		return minAssetPriceCents
	}
	if ret < -maxDropPerTick {
		ret = -maxDropPerTick
	}
	next := float64(priceCents) * math.Exp(ret)
	if next > float64(maxAssetPriceCents) {
		return maxAssetPriceCents
	}
	n := int64(math.Round(next))
	if n < minAssetPriceCents {
		n = minAssetPriceCents
	}
	return n
}

type assetRow struct {
	id     int64
	price  int64
	anchor int64
}

// updateAssetPrices runs pipeline step 3 for both priced asset classes.
// Stock updates are only counted; crypto updates are returned old-to-new for
// the tick record.
func (s *Service) updateAssetPrices(ctx context.Context) (int, []CryptoPriceUpdate, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, nil, err
	}
	defer tx.Rollback(ctx)

	params := volatilityParams(s.cfg.MarketVolatility)
	regime, err := s.currentRegimeTx(ctx, tx)
	if err != nil {
		return 0, nil, err
	}
	if s.nextFloat() < params.RegimeSwitchProb {
		regime = randomRegime(s.nextFloat())
		if _, err := tx.Exec(ctx, `
			INSERT INTO econ.market_state (id, regime, updated_at)
			VALUES (1, $1, now())
			ON CONFLICT (id) DO UPDATE SET regime = $1, updated_at = now()
		`, regime); err != nil {
			return 0, nil, err
		}
	}

	stockUpdates, _, err := s.walkPrices(ctx, tx, "stocks", StockScanLimit, params, regime)
	if err != nil {
		return 0, nil, err
	}
	_, cryptoUpdates, err := s.walkPrices(ctx, tx, "cryptos", CryptoScanLimit, params, regime)
	if err != nil {
		return 0, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, nil, err
	}
	return stockUpdates, cryptoUpdates, nil
}

func (s *Service) walkPrices(ctx context.Context, tx pgx.Tx, table string, limit int, params marketDynamics, regime string) (int, []CryptoPriceUpdate, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, price_cents, anchor_price_cents
		FROM econ.`+table+`
		ORDER BY updated_at ASC, id
		LIMIT $1
		FOR UPDATE
	`, limit)
	if err != nil {
		return 0, nil, err
	}
	var assets []assetRow
	for rows.Next() {
		var a assetRow
		if err := rows.Scan(&a.id, &a.price, &a.anchor); err != nil {
			rows.Close()
			return 0, nil, err
		}
		assets = append(assets, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}

	var updates []CryptoPriceUpdate
	for _, a := range assets {
		anchorRet := 0.30*regimeDrift(regime) + 0.5*params.NoiseScale*normalish(s.nextFloat())
		nextAnchor := evolvePrice(a.anchor, anchorRet, params.MaxDropPerTick)

		ret := regimeDrift(regime) + params.NoiseScale*normalish(s.nextFloat()) + meanReversion(a.price, a.anchor, params.MeanReversion)
		if s.nextFloat() < params.ShockProb {
			ret += signedShock(s.nextFloat(), s.nextFloat(), params.ShockScale)
		}
		next := evolvePrice(a.price, ret, params.MaxDropPerTick)

		if _, err := tx.Exec(ctx, `
			UPDATE econ.`+table+`
			SET price_cents = $1, anchor_price_cents = $2, updated_at = now()
			WHERE id = $3
		`, next, nextAnchor, a.id); err != nil {
			return 0, nil, err
		}
		if table == "cryptos" {
			updates = append(updates, CryptoPriceUpdate{CryptoID: a.id, OldPriceCents: a.price, NewPriceCents: next})
		}
	}
	return len(assets), updates, nil
}

func marshalCryptoUpdates(updates []CryptoPriceUpdate) []byte {
	if len(updates) == 0 {
		return []byte(`[]`)
	}
	raw, _ := json.Marshal(updates)
	return raw
}

func (s *Service) currentRegimeTx(ctx context.Context, tx pgx.Tx) (string, error) {
	var regime string
	err := tx.QueryRow(ctx, `
		SELECT regime
		FROM econ.market_state
		WHERE id = 1
	`).Scan(&regime)
	if err == nil {
		return regime, nil
	}
	if err != pgx.ErrNoRows {
		return "", err
	}
	regime = "neutral"
	_, err = tx.Exec(ctx, `
		INSERT INTO econ.market_state (id, regime, updated_at)
		VALUES (1, $1, now())
	`, regime)
	return regime, err
}
