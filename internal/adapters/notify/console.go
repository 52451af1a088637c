package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

// Console implementa ports.AuditSink escribiendo una línea por evento.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole crea un sink que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un sink sobre w (tests, archivos).
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Emit imprime ev en formato compacto.
func (c *Console) Emit(_ context.Context, ev domain.Event) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %-17s market=%d", ev.At.Format("15:04:05"), ev.Kind, ev.MarketID)
	if ev.PositionID != "" {
		fmt.Fprintf(&sb, " pos=%s", ev.PositionID)
	}
	if ev.Side != "" {
		fmt.Fprintf(&sb, " side=%s", ev.Side)
	}
	if ev.Amount > 0 {
		fmt.Fprintf(&sb, " amount=%d", ev.Amount)
	}
	switch ev.Kind {
	case domain.EventBetSettled:
		fmt.Fprintf(&sb, " won=%t payout=%d", ev.Won, ev.Payout)
	case domain.EventOutcomeAnnounced:
		fmt.Fprintf(&sb, " outcome=%s", ev.Outcome)
	}
	if ev.Fee > 0 || ev.DevFee > 0 {
		fmt.Fprintf(&sb, " fee=%d dev_fee=%d", ev.Fee, ev.DevFee)
	}
	fmt.Fprintf(&sb, " pools=%s/%s by=%s", ev.PoolA, ev.PoolB, shortAddr(ev.Actor))

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, sb.String())
	return err
}

// PrintMarket imprime el estado de un mercado y sus posiciones.
func (c *Console) PrintMarket(m domain.Market, positions []domain.Position, vaultBalance uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\nMarket #%d  %s vs %s\n", m.ID, m.OpponentA, m.OpponentB)
	fmt.Fprintf(c.out, "  status:    %s\n", marketStatus(m))
	fmt.Fprintf(c.out, "  window:    %s\n", windowLabel(m.Window))
	fmt.Fprintf(c.out, "  asset:     %s\n", m.Asset)
	fmt.Fprintf(c.out, "  authority: %s\n", m.Authority.Hex())
	fmt.Fprintf(c.out, "  vault:     %s (balance %d)\n", m.VaultAddress.Hex(), vaultBalance)
	fmt.Fprintf(c.out, "  fees:      %d bps + %d bps dev | accrued %d/%d paid %d/%d\n",
		m.FeeBps, m.DeveloperFeeBps,
		m.FeesAccrued, m.DeveloperFeesAccrued, m.FeesPaid, m.DeveloperFeesPaid)

	pools := tablewriter.NewWriter(c.out)
	pools.Header("Side", "Label", "Pool", "Bets")
	pools.Append("A", m.OpponentA, m.PoolA.Dec(), fmt.Sprintf("%d", m.CountA))
	pools.Append("B", m.OpponentB, m.PoolB.Dec(), fmt.Sprintf("%d", m.CountB))
	total := m.TotalPool()
	pools.Append("", "TOTAL", total.Dec(), fmt.Sprintf("%d", m.TotalBets()))
	pools.Render()

	if len(positions) == 0 {
		fmt.Fprintln(c.out, "  No positions yet.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Position", "Owner", "Side", "Stake", "Settled", "Payout")
	for i, p := range positions {
		settled, payout := "-", "-"
		if p.Settled {
			settled, payout = "yes", fmt.Sprintf("%d", p.Payout)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			p.ID,
			shortAddr(p.Owner.Hex()),
			p.Side.Label(m),
			fmt.Sprintf("%d", p.Amount),
			settled,
			payout,
		)
	}
	table.Render()
}

// PrintMarkets imprime un resumen de varios mercados.
func (c *Console) PrintMarkets(markets []domain.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(markets) == 0 {
		fmt.Fprintln(c.out, "No markets found.")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Match", "Status", "Pool A", "Pool B", "Bets")
	for _, m := range markets {
		table.Append(
			fmt.Sprintf("%d", m.ID),
			truncate(m.OpponentA+" vs "+m.OpponentB, 40),
			marketStatus(m),
			m.PoolA.Dec(),
			m.PoolB.Dec(),
			fmt.Sprintf("%d", m.TotalBets()),
		)
	}
	table.Render()
}

// PrintBalance imprime el saldo de una cuenta.
func (c *Console) PrintBalance(asset domain.AssetKind, account domain.Address, amount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s  %s  %d\n", account.Hex(), asset, amount)
}

func marketStatus(m domain.Market) string {
	switch {
	case m.Closed:
		return "CLOSED"
	case m.IsResolved():
		return "RESOLVED " + string(m.Outcome) + " (" + m.Outcome.Label(m) + ")"
	case m.Window.Kind == domain.WindowManual && !m.Window.Open:
		return "BETTING CLOSED"
	default:
		return "OPEN"
	}
}

func windowLabel(w domain.WindowPolicy) string {
	if w.Kind == domain.WindowDeadline {
		return "deadline " + w.Deadline.Format("2006-01-02 15:04 MST")
	}
	if w.Open {
		return "manual (open)"
	}
	return "manual (closed)"
}

func shortAddr(hex string) string {
	if len(hex) <= 12 {
		return hex
	}
	return hex[:6] + ".." + hex[len(hex)-4:]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

var _ ports.AuditSink = (*Console)(nil)
