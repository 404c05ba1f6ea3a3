package econ

import (
	"context"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/lease"
)

// Config holds the per-deployment tuning of the tick engine. Batch sizes are
// read caps, not invariants: any values preserve rotation fairness because
// every engine selects oldest-processed-first.
type Config struct {
	BotBudgetCents          int64
	CompanyBatch            int
	LoanBatch               int
	PlayerBatch             int
	TaxBatch                int
	InterestIntervalsPerDay int
	TickEvery               time.Duration
	MarketVolatility        string
}

func (c Config) withDefaults() Config {
	// Zero is a legal budget meaning no bot purchases; only a negative
	// value is treated as unset.
	if c.BotBudgetCents < 0 {
		c.BotBudgetCents = DefaultBotBudgetCents
	}
	if c.CompanyBatch <= 0 {
		c.CompanyBatch = 10
	}
	if c.LoanBatch <= 0 {
		c.LoanBatch = 100
	}
	if c.PlayerBatch <= 0 {
		c.PlayerBatch = 10
	}
	if c.TaxBatch <= 0 {
		c.TaxBatch = 50
	}
	if c.InterestIntervalsPerDay <= 0 {
		c.InterestIntervalsPerDay = 72
	}
	if c.TickEvery <= 0 {
		c.TickEvery = 5 * time.Minute
	}
	if c.MarketVolatility == "" {
		c.MarketVolatility = "mor"
	}
	return c
}

// TickObserver receives the outcome of every coordinator invocation.
type TickObserver interface {
	ObserveTick(outcome string, d time.Duration, summary TickSummary)
	ObserveTaxSweep(summary TaxSweepSummary)
}

// TickPublisher emits completed-tick summaries to external consumers.
// Publishing is best-effort; the coordinator logs failures and moves on.
type TickPublisher interface {
	PublishTick(ctx context.Context, summary TickSummary) error
}

// Service owns the tick pipeline and its batched sub-engines. All writes to
// the ledger flow through it while a tick holds the lease.
type Service struct {
	db        *pgxpool.Pool
	log       *slog.Logger
	lease     lease.Lease
	cfg       Config
	observer  TickObserver
	publisher TickPublisher

	mu   sync.Mutex
	rand *mathrand.Rand
}

func NewService(db *pgxpool.Pool, lock lease.Lease, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:    db,
		log:   logger,
		lease: lock,
		cfg:   cfg.withDefaults(),
		rand:  mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

// SetObserver and SetPublisher wire optional collaborators; both default to
// disabled.
func (s *Service) SetObserver(o TickObserver)   { s.observer = o }
func (s *Service) SetPublisher(p TickPublisher) { s.publisher = p }

func (s *Service) nextFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

// appendTransaction writes one append-only audit row. Company/player ids may
// be zero-valued uuids for pure-overhead movements with no counterparty.
func appendTransaction(ctx context.Context, tx pgx.Tx, companyID int64, playerID string, deltaCents int64, reason string, meta map[string]any) error {
	var metaJSON []byte
	if meta != nil {
		metaJSON, _ = json.Marshal(meta)
	} else {
		metaJSON = []byte(`{}`)
	}
	var company any
	if companyID != 0 {
		company = companyID
	}
	var player any
	if playerID != "" {
		player = playerID
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO econ.transactions (tx_group_id, company_id, player_id, delta_cents, reason, metadata)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
	`, uuid.NewString(), company, player, deltaCents, reason, string(metaJSON))
	return err
}

// ListTickRecords returns the most recent completed ticks, newest first.
func (s *Service) ListTickRecords(ctx context.Context, limit int) ([]TickRecordView, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT tick_number, tick_id, ticked_at, bot_purchases, crypto_price_updates, total_budget_spent_cents
		FROM econ.tick_records
		ORDER BY tick_number DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TickRecordView
	for rows.Next() {
		rec, err := scanTickRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Service) TickRecordByNumber(ctx context.Context, tickNumber int64) (TickRecordView, error) {
	row := s.db.QueryRow(ctx, `
		SELECT tick_number, tick_id, ticked_at, bot_purchases, crypto_price_updates, total_budget_spent_cents
		FROM econ.tick_records
		WHERE tick_number = $1
	`, tickNumber)
	rec, err := scanTickRecord(row)
	if err == pgx.ErrNoRows {
		return rec, ErrTickNotFound
	}
	return rec, err
}

func scanTickRecord(row pgx.Row) (TickRecordView, error) {
	var rec TickRecordView
	var purchases, updates []byte
	if err := row.Scan(&rec.TickNumber, &rec.TickID, &rec.TickedAt, &purchases, &updates, &rec.TotalBudgetSpentCents); err != nil {
		return rec, err
	}
	if len(purchases) > 0 {
		if err := json.Unmarshal(purchases, &rec.BotPurchases); err != nil {
			return rec, fmt.Errorf("decode bot purchases: %w", err)
		}
	}
	if len(updates) > 0 {
		if err := json.Unmarshal(updates, &rec.CryptoPriceUpdates); err != nil {
			return rec, fmt.Errorf("decode crypto updates: %w", err)
		}
	}
	return rec, nil
}

// SeedDefaults populates an empty ledger with a demo economy so a fresh
// deployment has something to tick against. No-op when products exist.
func (s *Service) SeedDefaults(ctx context.Context) error {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(1) FROM econ.products`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	players := []struct {
		Username string
		Role     string
		Balance  int64
	}{
		{"mercantile_max", "player", 2_500_000},
		{"penny_farthing", "player", 150_000},
		{"vault_victoria", "player", 48_000_000},
		{"marketmaker_bot", "bot", 0},
	}
	playerIDs := make([]string, 0, len(players))
	for _, p := range players {
		id := uuid.NewString()
		if _, err := tx.Exec(ctx, `
			INSERT INTO econ.players (id, username, role, balance_cents, net_worth_cents, net_worth_updated_at)
			VALUES ($1, $2, $3, $4, $4, now())
		`, id, p.Username, p.Role, p.Balance); err != nil {
			return err
		}
		playerIDs = append(playerIDs, id)
	}

	companies := []struct {
		Owner   int
		Name    string
		Balance int64
	}{
		{0, "Max Mercantile Co", 1_200_000},
		{1, "Farthing Freight", 90_000},
		{2, "Victoria Vaultworks", 30_000_000},
	}
	companyIDs := make([]int64, 0, len(companies))
	for _, c := range companies {
		var id int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO econ.companies (owner_player_id, name, balance_cents, updated_at)
			VALUES ($1, $2, $3, now())
			RETURNING id
		`, playerIDs[c.Owner], c.Name, c.Balance).Scan(&id); err != nil {
			return err
		}
		companyIDs = append(companyIDs, id)
	}

	limited := func(v int64) *int64 { return &v }
	products := []struct {
		Company int
		Name    string
		Price   int64
		Stock   *int64
		Quality float64
	}{
		{0, "Pocket Abacus", 1_900, nil, 0.62},
		{0, "Brass Compass", 12_500, limited(400), 0.74},
		{1, "Crated Widgets", 89_000, limited(120), 0.55},
		{1, "Standing Desk", 104_000, nil, 0.81},
		{2, "Vault Door Mk II", 1_450_000, limited(12), 0.93},
		{2, "Signal Lantern", 6_400, nil, 0.47},
	}
	for _, p := range products {
		if _, err := tx.Exec(ctx, `
			INSERT INTO econ.products (company_id, name, price_cents, stock, quality, active, archived)
			VALUES ($1, $2, $3, $4, $5, true, false)
		`, companyIDs[p.Company], p.Name, p.Price, p.Stock, p.Quality); err != nil {
			return err
		}
	}

	stocks := []struct {
		Symbol string
		Price  int64
	}{
		{"MAXMER", 13_000}, {"FARFRT", 9_500}, {"VLTWKS", 11_500},
		{"QUBANK", 8_000}, {"GLDRSH", 15_000},
	}
	for _, st := range stocks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO econ.stocks (symbol, price_cents, anchor_price_cents, listed, updated_at)
			VALUES ($1, $2, $2, true, now())
		`, st.Symbol, st.Price); err != nil {
			return err
		}
	}

	cryptos := []struct {
		Symbol string
		Price  int64
	}{
		{"QBIT", 420_000}, {"DOGEQ", 30}, {"STONK", 7_700},
	}
	for _, c := range cryptos {
		if _, err := tx.Exec(ctx, `
			INSERT INTO econ.cryptos (symbol, price_cents, anchor_price_cents, updated_at)
			VALUES ($1, $2, $2, now())
		`, c.Symbol, c.Price); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
