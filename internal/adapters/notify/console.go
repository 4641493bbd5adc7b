package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/klinebt/internal/domain"
	"github.com/alejandrodnm/klinebt/internal/ports"
)

const defaultTop = 20

var _ ports.ReportSink = (*Console)(nil)

// Console implementa ports.ReportSink imprimiendo un resumen en terminal.
type Console struct {
	out   io.Writer
	top   int
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
// top limita las filas de la tabla (0 = 20).
func NewConsole(top int, table bool) *Console {
	return NewConsoleWriter(os.Stdout, top, table)
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, top int, table bool) *Console {
	if top <= 0 {
		top = defaultTop
	}
	return &Console{out: w, top: top, table: table}
}

// Write imprime el resumen en el modo configurado.
func (c *Console) Write(_ context.Context, report domain.FinalReport) error {
	if report.Instruments() == 0 {
		fmt.Fprintln(c.out, "no instruments processed")
		return nil
	}

	c.printCompact(report)
	if c.table {
		return c.printTable(report)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(report domain.FinalReport) {
	traded := report.Traded()
	fmt.Fprintf(c.out, "%d instruments → traded:%d trades:%d success_ratio:%.4f avg_return:%+.4f%%\n",
		report.Instruments(), len(traded), report.TradeCount(),
		report.AvgSuccessRatio, report.AvgReturn*100)
}

// printTable imprime los top instrumentos por value.
func (c *Console) printTable(report domain.FinalReport) error {
	ranked := rankByValue(report.Traded())
	if len(ranked) == 0 {
		fmt.Fprintln(c.out, "  no trades")
		return nil
	}
	if len(ranked) > c.top {
		ranked = ranked[:c.top]
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Instrument", "Value", "Return", "Trades", "Success")
	for i, s := range ranked {
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(s.Key, 32),
			fmt.Sprintf("%.6f", s.Value),
			fmt.Sprintf("%+.3f%%", (s.Value-1)*100),
			fmt.Sprintf("%d", len(s.Trades)),
			fmt.Sprintf("%.2f", s.SuccessRatio),
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("notify.Console: render table: %w", err)
	}

	fmt.Fprintln(c.out, "  Value = producto de (1+profit) | Return = value - 1 | Success = trades con profit >= 0")
	return nil
}

// rankByValue ordena por value descendente; empates por clave.
func rankByValue(summaries []domain.InstrumentSummary) []domain.InstrumentSummary {
	ranked := make([]domain.InstrumentSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Key < ranked[j].Key
	})
	return ranked
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return strings.TrimSpace(s[:maxLen-3]) + "..."
}
